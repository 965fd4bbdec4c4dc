package bridge

import (
	"sync"

	"github.com/soypat/packetlab/link"
)

// Repeater is a multi-port node that floods every inbound frame out
// every other port, unconditionally. Unlike Switch it keeps no table and
// never drops on a bad checksum; it has no notion of frame contents at
// all. Useful as a dumb hub, chiefly for tests exercising a switch
// against predictable fan-out. The zero value is not usable; construct
// one with NewRepeater.
type Repeater struct {
	mu    sync.Mutex
	ports []*link.Link
}

// NewRepeater returns a Repeater with nports ports, all initially
// unplugged.
func NewRepeater(nports int) *Repeater {
	return &Repeater{ports: make([]*link.Link, nports)}
}

// NPorts returns the number of ports the repeater was constructed with.
func (r *Repeater) NPorts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ports)
}

// Plug attaches the repeater's given port to l, first unplugging any
// link currently occupying that port.
func (r *Repeater) Plug(port int, l *link.Link) error {
	r.mu.Lock()
	if port < 0 || port >= len(r.ports) {
		r.mu.Unlock()
		return ErrInvalidPort
	}
	old := r.ports[port]
	r.ports[port] = l
	r.mu.Unlock()

	if old != nil {
		old.Detach(r)
	}
	return l.Attach(r)
}

// Unplug detaches whatever link occupies port, if any.
func (r *Repeater) Unplug(port int) error {
	r.mu.Lock()
	if port < 0 || port >= len(r.ports) {
		r.mu.Unlock()
		return ErrInvalidPort
	}
	l := r.ports[port]
	r.ports[port] = nil
	r.mu.Unlock()

	if l != nil {
		l.Detach(r)
	}
	return nil
}

// RxLink implements link.Node, flooding buf out every plugged port other
// than the one it arrived on.
func (r *Repeater) RxLink(l *link.Link, buf []byte) {
	r.mu.Lock()
	inport := -1
	for i, p := range r.ports {
		if p == l {
			inport = i
			break
		}
	}
	if inport < 0 {
		r.mu.Unlock()
		panic("bridge: rx from unattached link")
	}
	outLinks := make([]*link.Link, 0, len(r.ports)-1)
	for i, p := range r.ports {
		if i != inport && p != nil {
			outLinks = append(outLinks, p)
		}
	}
	r.mu.Unlock()

	for _, p := range outLinks {
		p.Tx(r, buf)
	}
}
