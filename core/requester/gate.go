package requester

import (
	"sync"
	"time"

	"github.com/vadiminshakov/adbridge/core/dto"
)

// Gate suppresses repeated sends of the same command within a cooldown window.
// Entries live for the lifetime of the process.
type Gate struct {
	window     time.Duration
	lastSentAt map[dto.Command]time.Time
	mu         sync.Mutex
}

// NewGate creates a gate; a negative window is treated as zero.
func NewGate(window time.Duration) *Gate {
	return &Gate{
		window:     max(0, window),
		lastSentAt: make(map[dto.Command]time.Time),
	}
}

// CanSend reports whether at least the cooldown window has passed since the
// last recorded send of cmd.
func (g *Gate) CanSend(cmd dto.Command, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastSentAt[cmd]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.window
}

// MarkSent records that cmd was dispatched at now.
func (g *Gate) MarkSent(cmd dto.Command, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSentAt[cmd] = now
}
