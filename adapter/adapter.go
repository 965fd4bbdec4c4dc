// Package adapter implements a single-port network adapter: link-layer
// framing with checksums, address resolution, and routing between a
// local subnet and a default gateway.
package adapter

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/soypat/packetlab/frame"
	"github.com/soypat/packetlab/internal/keyedwait"
	"github.com/soypat/packetlab/link"
)

// ErrNoRouteToHost is returned by OutputIP when address resolution
// exhausts its retries without a reply.
var ErrNoRouteToHost = errors.New("adapter: no route to host")

const (
	resolveAttempts = 3
	resolveTimeout  = 100 * time.Millisecond
	// maxRedirects bounds the gateway-redirect loop in OutputIP. The
	// resolution protocol's happens-before ordering (the responder
	// learns the initiator's address before replying through its own
	// OutputIP) means a redirect loop longer than one hop should never
	// occur in practice; this is a hard backstop against pathological
	// interface/gateway configurations.
	maxRedirects = 8
)

// Adapter is a single-port node owning a hwaddr, a local interface
// descriptor, and a default gateway. The zero value is not usable;
// construct one with New.
type Adapter struct {
	hw      frame.Hwaddr
	iface   Interface
	gateway frame.NetAddr

	mu    sync.Mutex
	link  *link.Link
	cache map[frame.NetAddr]frame.Hwaddr

	waiters keyedwait.Map[frame.NetAddr, struct{}]

	// Input is invoked for every protocol datagram delivered to this
	// adapter. A nil Input silently discards deliveries.
	Input func(protonum frame.Protonum, payload []byte)
}

// New returns an Adapter with the given hwaddr, interface descriptor,
// and default gateway, with no link attached and an empty cache.
func New(hw frame.Hwaddr, iface Interface, gateway frame.NetAddr) *Adapter {
	return &Adapter{
		hw:      hw,
		iface:   iface,
		gateway: gateway,
		cache:   make(map[frame.NetAddr]frame.Hwaddr),
	}
}

// Hwaddr returns the adapter's hardware address.
func (a *Adapter) Hwaddr() frame.Hwaddr { return a.hw }

// Iface returns the adapter's interface descriptor.
func (a *Adapter) Iface() Interface { return a.iface }

// Gateway returns the adapter's default gateway address.
func (a *Adapter) Gateway() frame.NetAddr { return a.gateway }

// Plug attaches the adapter to l, first unplugging any link it is
// currently attached to.
func (a *Adapter) Plug(l *link.Link) {
	a.mu.Lock()
	old := a.link
	a.link = l
	a.mu.Unlock()

	if old != nil {
		old.Detach(a)
	}
	l.Attach(a)
}

// Unplug detaches the adapter from its current link, if any.
func (a *Adapter) Unplug() {
	a.mu.Lock()
	l := a.link
	a.link = nil
	a.mu.Unlock()

	if l != nil {
		l.Detach(a)
	}
}

// Output builds a link frame with the adapter as source and transmits
// it. If the adapter has no link attached, Output is a silent no-op.
func (a *Adapter) Output(protonum frame.Protonum, dstHw frame.Hwaddr, payload []byte) {
	a.mu.Lock()
	l := a.link
	a.mu.Unlock()
	if l == nil {
		return
	}
	buf := frame.Encode(protonum, dstHw, a.hw, payload)
	l.Tx(a, buf)
}

// OutputIP sends payload to dstIP at the network layer, resolving the
// link-layer address and selecting the default gateway as next hop when
// dstIP is off-subnet. It returns ErrNoRouteToHost if resolution cannot
// complete within its retry budget.
func (a *Adapter) OutputIP(protonum frame.Protonum, dstIP frame.NetAddr, payload []byte) error {
	target := dstIP
	for i := 0; i < maxRedirects; i++ {
		if !a.iface.Contains(target) {
			target = a.gateway
			continue
		}

		a.mu.Lock()
		hw, ok := a.cache[target]
		a.mu.Unlock()
		if ok {
			a.Output(protonum, hw, payload)
			return nil
		}

		if err := a.resolve(target); err != nil {
			return err
		}
		// Retry the cache lookup above; resolve populated it on success.
	}
	return ErrNoRouteToHost
}

// resolve runs the address-resolution request/reply protocol for
// target: up to resolveAttempts link-broadcast requests, each followed
// by a wait of up to resolveTimeout for a matching reply.
func (a *Adapter) resolve(target frame.NetAddr) error {
	req := frame.EncodeResolution(frame.Hwaddr{}, a.hw, target, a.iface.Addr, false)
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		a.Output(frame.ResolutionProtonum, frame.BroadcastHwaddr, req)
		if _, ok := a.waiters.Get(target, resolveTimeout); ok {
			return nil
		}
	}
	return ErrNoRouteToHost
}

// RxLink implements link.Node. l must be the adapter's currently
// attached link; a frame arriving from any other link is a programmer
// error and panics.
func (a *Adapter) RxLink(l *link.Link, buf []byte) {
	a.mu.Lock()
	cur := a.link
	a.mu.Unlock()
	if cur != l {
		panic("adapter: rx from unattached link")
	}
	a.rx(buf)
}

func (a *Adapter) rx(buf []byte) {
	f, err := frame.Decode(buf)
	if err != nil || !frame.VerifyChecksum(f) {
		slog.Debug("adapter: dropped malformed frame", slog.Any("err", err))
		return
	}

	protonum := f.Protonum()
	if protonum == frame.ResolutionProtonum {
		a.handleResolution(f.Payload())
		return
	}

	dst := *f.DestinationHW()
	if dst == a.hw || dst == frame.BroadcastHwaddr {
		if a.Input != nil {
			a.Input(protonum, f.Payload())
		}
	}
}

func (a *Adapter) handleResolution(payload []byte) {
	r, err := frame.NewResolutionPayload(payload)
	if err != nil {
		slog.Debug("adapter: dropped malformed resolution payload", slog.Any("err", err))
		return
	}
	if *r.DestinationIP() != a.iface.Addr {
		return
	}

	srcIP := *r.SourceIP()
	srcHw := *r.SourceHW()
	a.mu.Lock()
	a.cache[srcIP] = srcHw
	a.mu.Unlock()

	if r.Success() && *r.DestinationHW() == a.hw {
		a.waiters.Put(srcIP, struct{}{})
		return
	}

	reply := frame.EncodeResolution(srcHw, a.hw, srcIP, a.iface.Addr, true)
	a.OutputIP(frame.ResolutionProtonum, srcIP, reply)
}
