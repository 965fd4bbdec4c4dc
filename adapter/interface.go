package adapter

import "github.com/soypat/packetlab/frame"

// Interface describes an adapter's network-layer address and subnet, an
// address paired with a prefix length in [0,32].
type Interface struct {
	Addr      frame.NetAddr
	PrefixLen int
}

// Contains reports whether ip lies in the same subnet as iface.
func (iface Interface) Contains(ip frame.NetAddr) bool {
	mask := subnetMask(iface.PrefixLen)
	return toUint32(iface.Addr)&mask == toUint32(ip)&mask
}

func subnetMask(prefixLen int) uint32 {
	if prefixLen <= 0 {
		return 0
	}
	if prefixLen >= 32 {
		return 0xffffffff
	}
	return ^uint32(0) << (32 - prefixLen)
}

func toUint32(a frame.NetAddr) uint32 {
	return uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
}
