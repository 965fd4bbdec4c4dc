// Package bridge implements multiport nodes that forward link frames
// between their ports: a learning Switch and a trivial flooding Repeater.
package bridge

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/soypat/packetlab/frame"
	"github.com/soypat/packetlab/link"
)

// ErrInvalidPort is returned by Plug/Unplug when portnum is outside
// [0, NPorts()).
var ErrInvalidPort = errors.New("bridge: invalid port number")

// Switch is a multi-port learning bridge. It forwards frames between
// ports according to a learned source-address to port table, floods on
// miss or broadcast, and silently drops frames with a bad checksum. The
// zero value is not usable; construct one with NewSwitch.
type Switch struct {
	mu    sync.Mutex
	ports []*link.Link
	table map[frame.Hwaddr]int
}

// NewSwitch returns a Switch with nports ports, all initially unplugged.
func NewSwitch(nports int) *Switch {
	return &Switch{
		ports: make([]*link.Link, nports),
		table: make(map[frame.Hwaddr]int),
	}
}

// NPorts returns the number of ports the switch was constructed with.
func (s *Switch) NPorts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ports)
}

// Plug attaches the switch's given port to l, first unplugging any link
// currently occupying that port.
func (s *Switch) Plug(port int, l *link.Link) error {
	s.mu.Lock()
	if port < 0 || port >= len(s.ports) {
		s.mu.Unlock()
		return ErrInvalidPort
	}
	old := s.ports[port]
	s.ports[port] = l
	s.mu.Unlock()

	if old != nil {
		old.Detach(s)
	}
	return l.Attach(s)
}

// Unplug detaches whatever link occupies port, if any.
func (s *Switch) Unplug(port int) error {
	s.mu.Lock()
	if port < 0 || port >= len(s.ports) {
		s.mu.Unlock()
		return ErrInvalidPort
	}
	l := s.ports[port]
	s.ports[port] = nil
	s.mu.Unlock()

	if l != nil {
		l.Detach(s)
	}
	return nil
}

// RxLink implements link.Node. It is invoked by whichever link delivers
// buf; the switch locates the ingress port by identity among its plugged
// links.
func (s *Switch) RxLink(l *link.Link, buf []byte) {
	f, err := frame.Decode(buf)
	if err != nil || !frame.VerifyChecksum(f) {
		slog.Debug("bridge: dropped malformed frame", slog.Any("err", err))
		return
	}

	s.mu.Lock()
	inport := s.indexOf(l)
	if inport < 0 {
		s.mu.Unlock()
		panic("bridge: rx from unattached link")
	}

	dst := *f.DestinationHW()
	var outLinks []*link.Link
	if outport, known := s.table[dst]; known {
		if outport == inport {
			s.mu.Unlock()
			return
		}
		outLinks = []*link.Link{s.ports[outport]}
	} else {
		s.table[*f.SourceHW()] = inport
		outLinks = make([]*link.Link, 0, len(s.ports)-1)
		for i, p := range s.ports {
			if i != inport && p != nil {
				outLinks = append(outLinks, p)
			}
		}
	}
	s.mu.Unlock()

	for _, p := range outLinks {
		if p != nil {
			p.Tx(s, buf)
		}
	}
}

// indexOf returns the port index occupied by l, or -1 if l is not
// currently plugged into s. Callers must hold s.mu.
func (s *Switch) indexOf(l *link.Link) int {
	for i, p := range s.ports {
		if p == l {
			return i
		}
	}
	return -1
}
