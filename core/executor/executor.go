// Package executor implements the side of the bridge that owns the ad SDK.
//
// Every authenticated request is answered exactly once through a Guard, even
// when the SDK fails, hangs or the handler panics. Unauthenticated or
// malformed messages are dropped without a reply.
package executor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/config"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/core/envelope"
	"github.com/vadiminshakov/adbridge/core/executor/hooks"
	"github.com/vadiminshakov/adbridge/core/sdk"
	"github.com/vadiminshakov/adbridge/io/channel"
	"golang.org/x/sync/semaphore"
)

// maxInFlight bounds the number of requests handled concurrently.
const maxInFlight = 128

// Executor answers authenticated requests against a single interstitial slot.
type Executor struct {
	secret        string
	sdk           sdk.SDK
	ad            *Interstitial
	hookRegistry  *hooks.Registry
	guardDeadline time.Duration
}

// New creates an executor. Without custom hooks the default logging hook is used.
func New(conf *config.Config, adSDK sdk.SDK, customHooks ...hooks.Hook) *Executor {
	registry := hooks.NewRegistry()

	for _, hook := range customHooks {
		registry.Register(hook)
	}

	if len(customHooks) == 0 {
		registry.Register(hooks.NewDefaultHook())
	}

	return &Executor{
		secret:        conf.Secret,
		sdk:           adSDK,
		ad:            NewInterstitial(adSDK, conf.LoadTimeout, conf.ShowTimeout),
		hookRegistry:  registry,
		guardDeadline: GuardDeadline(conf.LoadTimeout, conf.ShowTimeout, conf.GuardMargin),
	}
}

// GuardDeadline is the longest a request may stay unanswered.
func GuardDeadline(loadTimeout, showTimeout, margin time.Duration) time.Duration {
	return max(loadTimeout, showTimeout) + margin
}

// RegisterHook adds a new hook to the executor
func (e *Executor) RegisterHook(hook hooks.Hook) {
	e.hookRegistry.Register(hook)
}

// Slot exposes the interstitial slot for inspection.
func (e *Executor) Slot() *Interstitial {
	return e.ad
}

// Start initialises the SDK. A failure is logged and the executor keeps serving.
func (e *Executor) Start(ctx context.Context) {
	if err := e.sdk.Start(ctx); err != nil {
		log.Errorf("ad sdk start failed: %v", err)
		return
	}
	log.Info("ad sdk started")
}

// Serve handles inbound messages until ctx is done or inbound is closed.
// Each message is handled on its own goroutine, at most maxInFlight at a time.
func (e *Executor) Serve(ctx context.Context, inbound <-chan channel.Message) {
	limiter := semaphore.NewWeighted(maxInFlight)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if err := limiter.Acquire(ctx, 1); err != nil {
				return
			}
			go func() {
				defer limiter.Release(1)
				e.Handle(ctx, msg)
			}()
		}
	}
}

// Handle processes one inbound message and blocks until it has been answered
// or dropped.
func (e *Executor) Handle(ctx context.Context, msg channel.Message) {
	req, ok := envelope.DecodeRequest(msg.Data, e.secret)
	if !ok {
		log.Debug("dropped malformed or unauthenticated message")
		return
	}

	// the guard exists before any handling so every path below is answered
	guard := newGuard(msg.Source, e.secret, req.Command, e.hookRegistry.ExecuteReply)
	guard.arm(e.guardDeadline)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler error for %s: %v", req.Command, r)
			guard.respond(false, dto.ReasonPanic)
		}
	}()

	if !e.hookRegistry.ExecuteRequest(&req) {
		guard.respond(false, dto.ReasonRejectedByHook)
		return
	}

	e.dispatch(ctx, &req, guard)
}

func (e *Executor) dispatch(ctx context.Context, req *dto.Request, guard *Guard) {
	switch req.Command {
	case dto.CommandLoad:
		ok := e.ad.Load(ctx, req.ResourceRef)
		log.WithFields(log.Fields{"command": req.Command, "ref": req.ResourceRef, "ok": ok}).Info("result")
		guard.Respond(ok)

	case dto.CommandShow:
		// never load implicitly on show
		if !e.ad.Loaded() {
			guard.Respond(false)
			return
		}
		ok := e.ad.Show(ctx)
		log.WithFields(log.Fields{"command": req.Command, "ref": req.ResourceRef, "ok": ok}).Info("result")
		guard.Respond(ok)

	default:
		log.Warnf("unknown command: %s", req.Command)
		guard.respond(false, dto.ReasonUnknownCommand)
	}
}
