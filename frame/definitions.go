// Package frame implements the two binary wire formats that flow over a
// [github.com/soypat/packetlab/link.Link]: the link frame and the address
// resolution payload it carries when its protocol number is
// [ResolutionProtonum].
package frame

import (
	"errors"
	"strconv"
)

// Hwaddr is a 6-byte link-layer address.
type Hwaddr [6]byte

// String renders hw as colon-separated hex, e.g. "ff:ff:ff:ff:ff:ff".
func (hw Hwaddr) String() string {
	buf := make([]byte, 0, 17)
	for i, b := range hw {
		if i != 0 {
			buf = append(buf, ':')
		}
		if b < 16 {
			buf = append(buf, '0')
		}
		buf = strconv.AppendUint(buf, uint64(b), 16)
	}
	return string(buf)
}

// NetAddr is a 4-byte network-layer address.
type NetAddr [4]byte

func (a NetAddr) String() string {
	return strconv.Itoa(int(a[0])) + "." + strconv.Itoa(int(a[1])) + "." +
		strconv.Itoa(int(a[2])) + "." + strconv.Itoa(int(a[3]))
}

// Protonum identifies the upper-layer protocol carried by a link frame. It
// is serialised big-endian in 6 bytes, so only the low 48 bits are
// significant.
type Protonum uint64

// BroadcastHwaddr is the all-ones hardware address: a frame addressed to it
// is accepted by every receiver on a link.
var BroadcastHwaddr = Hwaddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ResolutionProtonum is the reserved protocol number denoting an address
// resolution payload.
const ResolutionProtonum Protonum = 0x0806

const (
	// HeaderSize is the fixed link frame header length in bytes.
	HeaderSize = 22

	// ResolutionHeaderSize is the fixed resolution payload length, not
	// counting the trailing success marker.
	ResolutionHeaderSize = 20
)

var (
	ErrShortFrame      = errors.New("frame: buffer shorter than header")
	ErrShortResolution = errors.New("frame: resolution payload too short")
)
