package executor

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/core/envelope"
	"github.com/vadiminshakov/adbridge/io/channel"
)

const postTimeout = 5 * time.Second

const (
	guardPending int32 = iota
	guardCompleted
)

// Guard answers one request exactly once. The first Respond wins; if nothing
// responds before the deadline the guard itself replies with failure.
type Guard struct {
	state   atomic.Int32
	timer   atomic.Pointer[time.Timer]
	target  channel.Endpoint
	secret  string
	command dto.Command
	onReply func(*dto.Response, dto.Reason)
}

func newGuard(target channel.Endpoint, secret string, command dto.Command, onReply func(*dto.Response, dto.Reason)) *Guard {
	return &Guard{
		target:  target,
		secret:  secret,
		command: command,
		onReply: onReply,
	}
}

// arm starts the deadline timer.
func (g *Guard) arm(deadline time.Duration) {
	t := time.AfterFunc(deadline, func() {
		if g.respond(false, dto.ReasonGuardDeadline) {
			log.Warnf("no reply for %s within %s, sent failure", g.command, deadline)
		}
	})
	g.timer.Store(t)

	// Respond may have won before the timer was stored
	if g.Done() {
		t.Stop()
	}
}

// Done reports whether a reply has been sent.
func (g *Guard) Done() bool {
	return g.state.Load() == guardCompleted
}

// Respond sends ok unless a reply was already sent. It reports whether this
// call was the one that replied.
func (g *Guard) Respond(ok bool) bool {
	return g.respond(ok, dto.ReasonHandled)
}

func (g *Guard) respond(ok bool, reason dto.Reason) bool {
	if !g.state.CompareAndSwap(guardPending, guardCompleted) {
		return false
	}

	if t := g.timer.Load(); t != nil {
		t.Stop()
	}

	resp := &dto.Response{Secret: g.secret, Command: g.command, OK: ok}
	g.post(resp)
	log.WithFields(log.Fields{"command": g.command, "ok": ok, "reason": reason}).Info("send")

	if g.onReply != nil {
		g.onReply(resp, reason)
	}

	return true
}

func (g *Guard) post(resp *dto.Response) {
	if g.target == nil {
		log.Warnf("no reply target for %s", resp.Command)
		return
	}

	payload, err := envelope.EncodeResponse(*resp)
	if err != nil {
		log.Errorf("failed to encode reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("reply transport panicked for %s: %v", resp.Command, r)
		}
	}()

	if err := g.target.Post(ctx, payload); err != nil {
		log.Errorf("failed to post reply for %s: %v", resp.Command, err)
	}
}
