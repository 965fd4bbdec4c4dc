package frame

import "encoding/binary"

// Frame encapsulates the raw bytes of a link frame and provides accessors
// for its fixed header fields. Layout:
//
//	0..6    protonum  (big-endian, 6 bytes)
//	6..12   dst hwaddr
//	12..18  src hwaddr
//	18..22  checksum  (big-endian, 4 bytes; low byte significant)
//	22..    payload
type Frame struct {
	buf []byte
}

// NewFrame wraps buf as a Frame. An error is returned if buf is shorter
// than [HeaderSize]; buf is aliased, not copied.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, ErrShortFrame
	}
	return Frame{buf: buf}, nil
}

// Decode is an alias for NewFrame, named to match the codec's documented
// operation set (encode/decode/verify-checksum).
func Decode(buf []byte) (Frame, error) { return NewFrame(buf) }

// RawData returns the underlying buffer the frame was constructed with.
func (f Frame) RawData() []byte { return f.buf }

// Protonum returns the frame's protocol number.
func (f Frame) Protonum() Protonum { return Protonum(getUint48(f.buf[0:6])) }

// SetProtonum sets the frame's protocol number.
func (f Frame) SetProtonum(p Protonum) { putUint48(f.buf[0:6], uint64(p)) }

// DestinationHW returns a pointer into the frame's destination hwaddr field.
func (f Frame) DestinationHW() *Hwaddr { return (*Hwaddr)(f.buf[6:12]) }

// SourceHW returns a pointer into the frame's source hwaddr field.
func (f Frame) SourceHW() *Hwaddr { return (*Hwaddr)(f.buf[12:18]) }

// Checksum returns the raw 4-byte checksum field.
func (f Frame) Checksum() uint32 { return binary.BigEndian.Uint32(f.buf[18:22]) }

// SetChecksum sets the raw 4-byte checksum field.
func (f Frame) SetChecksum(c uint32) { binary.BigEndian.PutUint32(f.buf[18:22], c) }

// Payload returns the variable-length payload following the header.
func (f Frame) Payload() []byte { return f.buf[HeaderSize:] }

// Encode builds a complete link frame from its fields, computing and
// setting the checksum, and returns the serialised bytes.
func Encode(protonum Protonum, dst, src Hwaddr, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	f := Frame{buf: buf}
	f.SetProtonum(protonum)
	*f.DestinationHW() = dst
	*f.SourceHW() = src
	copy(f.Payload(), payload)
	f.SetChecksum(checksum(buf))
	return buf
}

// VerifyChecksum recomputes f's checksum over its serialised bytes and
// reports whether it matches the stored checksum field.
func VerifyChecksum(f Frame) bool {
	return f.Checksum() == checksum(f.buf)
}

// checksum computes the 8-bit XOR of every byte in buf except the 4
// checksum-field bytes at offset 18, placed in the low byte of the
// returned value. This is equivalent to "XOR over the serialised form
// with the checksum field zeroed," since XOR-ing in zero bytes is a
// no-op; no buffer mutation or copy is needed to compute it.
func checksum(buf []byte) uint32 {
	var c byte
	for i, b := range buf {
		if i >= 18 && i < 22 {
			continue
		}
		c ^= b
	}
	return uint32(c)
}

func getUint48(b []byte) uint64 {
	_ = b[5]
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}

func putUint48(b []byte, v uint64) {
	_ = b[5]
	b[0] = byte(v >> 40)
	b[1] = byte(v >> 32)
	b[2] = byte(v >> 24)
	b[3] = byte(v >> 16)
	b[4] = byte(v >> 8)
	b[5] = byte(v)
}
