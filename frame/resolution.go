package frame

// resolutionSuccessMarker is the trailing byte sequence appended to a
// resolution payload to mark it as a reply rather than a request. Its
// specific bytes are not meaningful on the wire (see ResolutionPayload.
// Success): any non-empty tail decodes as success. This choice matches the
// literal marker used by the pre-distillation implementation this
// simulator was modelled on, which serialised it as the four ASCII bytes
// "0xff" rather than the single byte 0xFF.
var resolutionSuccessMarker = []byte("0xff")

// ResolutionPayload encapsulates the raw bytes of an address resolution
// payload, carried inside a link frame whose protocol number is
// ResolutionProtonum. Layout:
//
//	0..6    dst hwaddr
//	6..12   src hwaddr
//	12..16  dst netaddr
//	16..20  src netaddr
//	20..    success marker (empty = request, non-empty = reply)
type ResolutionPayload struct {
	buf []byte
}

// NewResolutionPayload wraps buf as a ResolutionPayload. An error is
// returned if buf is shorter than ResolutionHeaderSize.
func NewResolutionPayload(buf []byte) (ResolutionPayload, error) {
	if len(buf) < ResolutionHeaderSize {
		return ResolutionPayload{}, ErrShortResolution
	}
	return ResolutionPayload{buf: buf}, nil
}

// RawData returns the underlying buffer the payload was constructed with.
func (r ResolutionPayload) RawData() []byte { return r.buf }

// DestinationHW returns a pointer into the payload's destination hwaddr
// field.
func (r ResolutionPayload) DestinationHW() *Hwaddr { return (*Hwaddr)(r.buf[0:6]) }

// SourceHW returns a pointer into the payload's source hwaddr field.
func (r ResolutionPayload) SourceHW() *Hwaddr { return (*Hwaddr)(r.buf[6:12]) }

// DestinationIP returns a pointer into the payload's destination netaddr
// field.
func (r ResolutionPayload) DestinationIP() *NetAddr { return (*NetAddr)(r.buf[12:16]) }

// SourceIP returns a pointer into the payload's source netaddr field.
func (r ResolutionPayload) SourceIP() *NetAddr { return (*NetAddr)(r.buf[16:20]) }

// Success reports whether the payload carries a non-empty trailing marker,
// i.e. whether it is a reply rather than a request.
func (r ResolutionPayload) Success() bool { return len(r.buf) > ResolutionHeaderSize }

// EncodeResolution builds a resolution payload from its fields and returns
// the serialised bytes.
func EncodeResolution(dstHw, srcHw Hwaddr, dstIP, srcIP NetAddr, success bool) []byte {
	n := ResolutionHeaderSize
	if success {
		n += len(resolutionSuccessMarker)
	}
	buf := make([]byte, n)
	r := ResolutionPayload{buf: buf}
	*r.DestinationHW() = dstHw
	*r.SourceHW() = srcHw
	*r.DestinationIP() = dstIP
	*r.SourceIP() = srcIP
	if success {
		copy(buf[ResolutionHeaderSize:], resolutionSuccessMarker)
	}
	return buf
}
