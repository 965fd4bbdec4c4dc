package bridge

import (
	"sync"
	"testing"

	"github.com/soypat/packetlab/frame"
	"github.com/soypat/packetlab/link"
)

type recordingNode struct {
	mu  sync.Mutex
	rxs [][]byte
}

func (n *recordingNode) RxLink(l *link.Link, buf []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rxs = append(n.rxs, buf)
}

func (n *recordingNode) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.rxs)
}

func plugNew(t *testing.T, s *Switch, port int) *link.Link {
	t.Helper()
	l := link.New("p")
	if err := s.Plug(port, l); err != nil {
		t.Fatalf("Plug(%d): %v", port, err)
	}
	return l
}

func TestSwitchFloodsOnUnknownDestination(t *testing.T) {
	s := NewSwitch(4)
	l0 := plugNew(t, s, 0)
	l1 := plugNew(t, s, 1)
	l2 := plugNew(t, s, 2)
	l3 := plugNew(t, s, 3)

	src := frame.Hwaddr{1, 1, 1, 1, 1, 1}
	dst := frame.Hwaddr{9, 9, 9, 9, 9, 9}
	n0 := &recordingNode{}
	l0.Attach(n0)
	buf := frame.Encode(0x1003, dst, src, []byte("learn-this"))
	l0.Tx(n0, buf)

	n1, n2, n3 := &recordingNode{}, &recordingNode{}, &recordingNode{}
	l1.Attach(n1)
	l2.Attach(n2)
	l3.Attach(n3)

	l0.Tx(n0, buf)
	if n1.count() != 1 || n2.count() != 1 || n3.count() != 1 {
		t.Errorf("flood counts = %d,%d,%d, want 1,1,1", n1.count(), n2.count(), n3.count())
	}
}

func TestSwitchLearnsAndForwardsToKnownPort(t *testing.T) {
	s := NewSwitch(6)
	aLink := link.New("a")
	bLink := link.New("b")
	if err := s.Plug(2, aLink); err != nil {
		t.Fatalf("Plug 2: %v", err)
	}
	if err := s.Plug(3, bLink); err != nil {
		t.Fatalf("Plug 3: %v", err)
	}

	aHw := frame.Hwaddr{0xa, 0xa, 0xa, 0xa, 0xa, 0xa}
	bHw := frame.Hwaddr{0xb, 0xb, 0xb, 0xb, 0xb, 0xb}
	otherHw := frame.Hwaddr{0xc, 0xc, 0xc, 0xc, 0xc, 0xc}

	a := &recordingNode{}
	aLink.Attach(a)
	b := &recordingNode{}
	bLink.Attach(b)

	// A floods a frame to an unknown destination, teaching the switch that
	// aHw lives on port 2.
	buf := frame.Encode(0x1003, otherHw, aHw, []byte("learn-this"))
	aLink.Tx(a, buf)
	if b.count() != 1 {
		t.Fatalf("b.count() = %d, want 1 (flood)", b.count())
	}

	// B transmits directly to aHw; the switch must forward out port 2 only.
	reply := frame.Encode(0x1003, aHw, bHw, []byte("seenit"))
	a.rxs = nil
	bLink.Tx(b, reply)

	if a.count() != 1 {
		t.Fatalf("a.count() = %d, want 1 (forwarded to known port)", a.count())
	}
	if string(a.rxs[0]) != string(reply) {
		t.Error("forwarded bytes differ from original transmission")
	}
}

func TestSwitchNeverForwardsBackOutIngressPort(t *testing.T) {
	s := NewSwitch(2)
	l0 := link.New("l0")
	l1 := link.New("l1")
	s.Plug(0, l0)
	s.Plug(1, l1)

	aHw := frame.Hwaddr{1, 2, 3, 4, 5, 6}
	a := &recordingNode{}
	l0.Attach(a)

	// Learn aHw -> port 0.
	l0.Tx(a, frame.Encode(1, frame.Hwaddr{9, 9, 9, 9, 9, 9}, aHw, []byte("hi")))

	// Now another frame destined for aHw arrives on port 0 itself: must be
	// dropped, not forwarded back out port 0. a shares l0 with the sender,
	// so it sees the link's own delivery once; a forward back out port 0
	// would make that twice.
	second := &recordingNode{}
	l0.Attach(second)
	l0.Tx(second, frame.Encode(1, aHw, frame.Hwaddr{8, 8, 8, 8, 8, 8}, []byte("bounce")))
	if a.count() != 1 {
		t.Errorf("a.count() = %d, want 1 (must not forward back out ingress port)", a.count())
	}
}

func TestSwitchDropsBadChecksumWithoutLearning(t *testing.T) {
	s := NewSwitch(2)
	l0 := link.New("l0")
	l1 := link.New("l1")
	s.Plug(0, l0)
	s.Plug(1, l1)

	a := &recordingNode{}
	l0.Attach(a)
	b := &recordingNode{}
	l1.Attach(b)

	buf := frame.Encode(1, frame.BroadcastHwaddr, frame.Hwaddr{1, 1, 1, 1, 1, 1}, []byte("x"))
	buf[0] ^= 0xff // corrupt, breaking checksum
	l0.Tx(a, buf)

	if b.count() != 0 {
		t.Error("malformed frame was forwarded")
	}

	s.mu.Lock()
	_, learned := s.table[frame.Hwaddr{1, 1, 1, 1, 1, 1}]
	s.mu.Unlock()
	if learned {
		t.Error("switching table was mutated by a bad-checksum frame")
	}
}

func TestPlugUnplugInvalidPort(t *testing.T) {
	s := NewSwitch(2)
	if err := s.Plug(5, link.New("x")); err != ErrInvalidPort {
		t.Errorf("Plug err = %v, want ErrInvalidPort", err)
	}
	if err := s.Unplug(-1); err != ErrInvalidPort {
		t.Errorf("Unplug err = %v, want ErrInvalidPort", err)
	}
}

func TestRepeaterFloodsUnconditionally(t *testing.T) {
	r := NewRepeater(3)
	l0 := link.New("l0")
	l1 := link.New("l1")
	l2 := link.New("l2")
	r.Plug(0, l0)
	r.Plug(1, l1)
	r.Plug(2, l2)

	a := &recordingNode{}
	l0.Attach(a)
	b := &recordingNode{}
	l1.Attach(b)
	c := &recordingNode{}
	l2.Attach(c)

	// Even a malformed, non-frame payload is flooded: the repeater has no
	// notion of frame contents.
	l0.Tx(a, []byte("not a frame at all"))
	if b.count() != 1 || c.count() != 1 {
		t.Errorf("b.count()=%d c.count()=%d, want 1,1", b.count(), c.count())
	}
}
