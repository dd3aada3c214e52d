package sdk

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoFill is returned by a simulated load when no inventory was served.
	ErrNoFill = errors.New("no fill")
	// ErrNotLoaded is returned by a simulated show on an unloaded handle.
	ErrNotLoaded = errors.New("ad not loaded")
)

// Simulated is an in-process stand-in for a real ad network.
type Simulated struct {
	// LoadLatency and ShowLatency are how long each call takes.
	LoadLatency time.Duration
	ShowLatency time.Duration
	// FillRate is the probability in [0,1] that a load succeeds.
	FillRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulated creates a simulated SDK.
func NewSimulated(loadLatency, showLatency time.Duration, fillRate float64) *Simulated {
	return &Simulated{
		LoadLatency: loadLatency,
		ShowLatency: showLatency,
		FillRate:    fillRate,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Simulated) Start(ctx context.Context) error {
	log.Infof("simulated ad sdk started (fill rate %.2f)", s.FillRate)
	return nil
}

func (s *Simulated) NewInterstitial(resourceRef string) Handle {
	return &simulatedHandle{sdk: s, ref: resourceRef}
}

func (s *Simulated) filled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.FillRate
}

type simulatedHandle struct {
	sdk    *Simulated
	ref    string
	mu     sync.Mutex
	loaded bool
}

func (h *simulatedHandle) Load(ctx context.Context) error {
	if err := sleep(ctx, h.sdk.LoadLatency); err != nil {
		return err
	}

	if !h.sdk.filled() {
		return errors.Wrapf(ErrNoFill, "unit %s", h.ref)
	}

	h.mu.Lock()
	h.loaded = true
	h.mu.Unlock()
	return nil
}

func (h *simulatedHandle) Show(ctx context.Context) error {
	h.mu.Lock()
	loaded := h.loaded
	h.loaded = false
	h.mu.Unlock()

	if !loaded {
		return ErrNotLoaded
	}

	return sleep(ctx, h.sdk.ShowLatency)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
