// Package requester implements the side of the bridge that issues commands.
//
// Sends are throttled per command by a cooldown Gate and outcomes are kept in
// a status Cache that the host reads synchronously. The requester never waits
// for a reply: the cache is updated whenever one arrives.
package requester

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/config"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/core/envelope"
	"github.com/vadiminshakov/adbridge/io/channel"
)

const interstitialPrefix = "inter_"

// SendOutcome describes what Send did with a command.
type SendOutcome int

const (
	// Sent means the request was handed to the channel.
	Sent SendOutcome = iota
	// Suppressed means the cooldown gate was closed; nothing changed.
	Suppressed
	// ShortCircuited means the secret or resource ref was missing and a
	// failure was recorded locally.
	ShortCircuited
	// PostFailed means the channel refused the request.
	PostFailed
)

func (o SendOutcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case Suppressed:
		return "suppressed"
	case ShortCircuited:
		return "short-circuited"
	default:
		return "post-failed"
	}
}

// Notifier schedules a host follow-up event.
//
//go:generate mockgen -destination=../../mocks/mock_notifier.go -package=mocks . Notifier
type Notifier interface {
	ReserveCommonEvent(id int)
}

// PlatformResolver returns the host platform id ("ios", "android" or "").
type PlatformResolver func() string

// Option configures a Requester.
type Option func(*Requester)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Requester) { r.now = now }
}

// WithPlatformResolver replaces the configured platform.
func WithPlatformResolver(resolve PlatformResolver) Option {
	return func(r *Requester) { r.platform = resolve }
}

// Requester sends commands to the executor and caches the replies.
type Requester struct {
	secret       string
	units        map[string]string
	platform     PlatformResolver
	upstream     channel.Endpoint
	gate         *Gate
	cache        *Cache
	notifier     Notifier
	afterEventID int
	now          func() time.Time
	// sendMu makes the gate check and mark a single step
	sendMu sync.Mutex
}

// New creates a requester sending to upstream. notifier may be nil.
func New(conf *config.Config, upstream channel.Endpoint, notifier Notifier, opts ...Option) *Requester {
	platform := conf.Platform
	r := &Requester{
		secret:       conf.Secret,
		units:        conf.Units,
		platform:     func() string { return platform },
		upstream:     upstream,
		gate:         NewGate(conf.Cooldown),
		cache:        NewCache(),
		notifier:     notifier,
		afterEventID: conf.AfterEventID,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Status returns the last known outcome of cmd.
func (r *Requester) Status(cmd dto.Command) dto.Status {
	return r.cache.Status(cmd)
}

// Send issues cmd unless the cooldown gate is closed.
func (r *Requester) Send(ctx context.Context, cmd dto.Command) SendOutcome {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	now := r.now()
	if !r.gate.CanSend(cmd, now) {
		log.Debugf("%s suppressed by cooldown", cmd)
		return Suppressed
	}

	ref := r.resourceRef(cmd)
	if r.secret == "" || ref == "" {
		log.WithFields(log.Fields{"command": cmd, "has_secret": r.secret != "", "ref": ref}).
			Warn("missing secret or ad unit, treating as failure")
		r.cache.Record(cmd, false)
		return ShortCircuited
	}

	payload, err := envelope.EncodeRequest(dto.Request{Secret: r.secret, Command: cmd, ResourceRef: ref})
	if err != nil {
		log.Errorf("failed to encode %s: %v", cmd, err)
		return PostFailed
	}

	r.gate.MarkSent(cmd, now)
	log.WithFields(log.Fields{"command": cmd, "ref": ref}).Info("send")

	if err := r.upstream.Post(ctx, payload); err != nil {
		log.Errorf("failed to post %s: %v", cmd, err)
		return PostFailed
	}

	return Sent
}

func (r *Requester) resourceRef(cmd dto.Command) string {
	if !strings.HasPrefix(cmd, interstitialPrefix) {
		return ""
	}

	switch p := r.platform(); p {
	case config.PlatformIOS, config.PlatformAndroid:
		return r.units[p]
	default:
		return ""
	}
}

// OnMessage applies an inbound response. Anything that is not an
// authenticated response is ignored.
func (r *Requester) OnMessage(raw []byte) {
	resp, ok := envelope.DecodeResponse(raw, r.secret)
	if !ok {
		log.Debug("dropped malformed or unauthenticated message")
		return
	}

	r.cache.Record(resp.Command, resp.OK)
	log.WithFields(log.Fields{"command": resp.Command, "ok": resp.OK}).Info("recv")

	if resp.Command == dto.CommandShow && r.afterEventID > 0 && r.notifier != nil {
		r.notifier.ReserveCommonEvent(r.afterEventID)
	}
}

// Serve applies inbound messages until ctx is done or inbound is closed.
func (r *Requester) Serve(ctx context.Context, inbound <-chan channel.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			r.OnMessage(msg.Data)
		}
	}
}
