// Package link implements a shared broadcast medium: a set of attached
// nodes, a transmit operation that delivers to every other attached node,
// and a one-shot single-bit corruption toggle.
package link

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/soypat/packetlab/internal/prand"
)

// Node is anything that can be attached to a Link.
type Node interface {
	// RxLink is invoked for each byte buffer the link delivers to this
	// node. l is the delivering link, used by implementations to assert
	// the frame arrived on the link they expect.
	RxLink(l *Link, buf []byte)
}

var (
	// ErrNotAttached is returned by Detach when n is not currently a
	// member of the link's attached set.
	ErrNotAttached = errors.New("link: node not attached")
	// ErrAlreadyAttached is returned by Attach when n is already a
	// member of the link's attached set.
	ErrAlreadyAttached = errors.New("link: node already attached")
)

// Link is a shared broadcast medium connecting a set of nodes. A Tx from
// one attached node delivers the byte buffer to every other attached
// node. The zero value is not usable; construct one with New.
type Link struct {
	mu      sync.Mutex
	name    string
	nodes   map[Node]struct{}
	corrupt bool
	debug   bool
	rng     *prand.Source
}

// Option configures a Link at construction time.
type Option func(*Link)

// WithDebug overrides the default debug hexdump toggle, which otherwise
// defaults to the presence of the NET_DEBUG environment variable.
func WithDebug(enabled bool) Option {
	return func(l *Link) { l.debug = enabled }
}

// WithSeed sets the seed of the link's corruption bit-selection
// generator, for reproducible tests. The default seed is derived from
// the link's name.
func WithSeed(seed uint32) Option {
	return func(l *Link) { l.rng = prand.NewSource(seed) }
}

// New returns a Link ready to have nodes attached to it.
func New(name string, opts ...Option) *Link {
	l := &Link{
		name:  name,
		nodes: make(map[Node]struct{}),
		debug: os.Getenv("NET_DEBUG") != "",
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		var seed uint32
		for _, c := range name {
			seed = seed*31 + uint32(c)
		}
		l.rng = prand.NewSource(seed)
	}
	return l
}

// Attach adds n to the link's attached set. It is an error to attach the
// same node twice.
func (l *Link) Attach(n Node) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.nodes[n]; ok {
		return ErrAlreadyAttached
	}
	l.nodes[n] = struct{}{}
	return nil
}

// Detach removes n from the link's attached set. It is an error to
// detach a node that is not attached.
func (l *Link) Detach(n Node) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.nodes[n]; !ok {
		return ErrNotAttached
	}
	delete(l.nodes, n)
	return nil
}

// CorruptNext arms a one-shot flag that flips a single random bit in the
// next buffer transmitted via Tx, whether or not any receiver is
// attached. It is consumed by the next Tx call regardless of outcome.
func (l *Link) CorruptNext() {
	l.mu.Lock()
	l.corrupt = true
	l.mu.Unlock()
}

// Tx delivers buf to every node attached to l other than sender. sender
// must currently be attached; calling Tx with an unattached sender is a
// programmer error and panics, matching the assertion in the reference
// implementation this link is modelled on.
//
// Each receiver is given its own defensive copy of buf. If the
// corruption flag is armed, the same single bit of the same byte is
// flipped in every receiver's copy before delivery, and the flag is
// cleared.
func (l *Link) Tx(sender Node, buf []byte) {
	l.mu.Lock()
	if _, ok := l.nodes[sender]; !ok {
		l.mu.Unlock()
		panic("link: tx from unattached node")
	}

	corrupt := l.corrupt
	l.corrupt = false
	var byteIdx, bitIdx int
	if corrupt && len(buf) > 0 {
		byteIdx, bitIdx = l.rng.BitPosition(len(buf))
	}

	receivers := make([]Node, 0, len(l.nodes)-1)
	for n := range l.nodes {
		if n != sender {
			receivers = append(receivers, n)
		}
	}
	debug := l.debug
	name := l.name
	l.mu.Unlock()

	if debug {
		logTx(name, buf, corrupt)
	}

	for _, n := range receivers {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		if corrupt && len(cp) > 0 {
			cp[byteIdx] ^= 1 << bitIdx
		}
		n.RxLink(l, cp)
	}
}

func logTx(name string, buf []byte, corrupt bool) {
	slog.Debug("link: tx", slog.String("link", name), slog.Bool("corrupt", corrupt), slog.String("hex", hex.EncodeToString(buf)))
}
