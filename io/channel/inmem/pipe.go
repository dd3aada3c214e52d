// Package inmem provides an in-process bridge channel.
package inmem

import (
	"context"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/adbridge/io/channel"
)

// ErrClosed is returned when posting to a closed port.
var ErrClosed = errors.New("port is closed")

const inboxSize = 100

// Option tunes delivery of a pipe.
type Option func(*pipe)

// WithLoss drops each payload with probability p.
func WithLoss(p float64) Option {
	return func(pp *pipe) { pp.loss = p }
}

// WithDuplication delivers each payload a second time with probability p.
func WithDuplication(p float64) Option {
	return func(pp *pipe) { pp.dup = p }
}

type pipe struct {
	loss float64
	dup  float64
	mu   sync.Mutex
	rnd  *rand.Rand
}

func (p *pipe) roll(prob float64) bool {
	if prob <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64() < prob
}

// Port is one side of a pipe.
type Port struct {
	pipe   *pipe
	peer   *Port
	inbox  chan channel.Message
	done   chan struct{}
	closed sync.Once
}

// NewPipe returns two connected ports. Each post is delivered on its own
// goroutine, so consecutive posts may arrive in any order.
func NewPipe(opts ...Option) (*Port, *Port) {
	p := &pipe{rnd: rand.New(rand.NewSource(rand.Int63()))}
	for _, opt := range opts {
		opt(p)
	}

	a := &Port{pipe: p, inbox: make(chan channel.Message, inboxSize), done: make(chan struct{})}
	b := &Port{pipe: p, inbox: make(chan channel.Message, inboxSize), done: make(chan struct{})}
	a.peer, b.peer = b, a

	return a, b
}

// Post hands payload to the peer port.
func (p *Port) Post(ctx context.Context, payload []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	if p.pipe.roll(p.pipe.loss) {
		return nil
	}

	copies := 1
	if p.pipe.roll(p.pipe.dup) {
		copies = 2
	}

	for i := 0; i < copies; i++ {
		data := append([]byte(nil), payload...)
		// replies through Source reach the sender
		p.peer.deliver(channel.Message{Data: data, Source: p.peer})
	}

	return nil
}

func (p *Port) deliver(msg channel.Message) {
	go func() {
		select {
		case p.inbox <- msg:
		case <-p.done:
		}
	}()
}

// Inbox returns the messages posted by the peer.
func (p *Port) Inbox() <-chan channel.Message {
	return p.inbox
}

// Close stops delivery to this port.
func (p *Port) Close() error {
	p.closed.Do(func() {
		close(p.done)
	})
	return nil
}
