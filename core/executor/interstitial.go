package executor

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/core/sdk"
)

// loadAttempt is shared by every caller waiting on the same in-flight load.
type loadAttempt struct {
	done chan struct{}
	ok   bool
}

// Interstitial tracks the load/show lifecycle of a single ad slot.
// Loaded inventory is used at most once: any show attempt returns the slot
// to Unloaded.
type Interstitial struct {
	mu          sync.Mutex
	sdk         sdk.SDK
	handle      sdk.Handle
	resourceRef string
	state       *stateMachine
	inflight    *loadAttempt
	// epoch changes whenever a load or show starts or the slot is rebound,
	// so stale completions can tell they no longer own the slot.
	epoch       uint64
	loadTimeout time.Duration
	showTimeout time.Duration
}

// NewInterstitial creates an unbound slot.
func NewInterstitial(adSDK sdk.SDK, loadTimeout, showTimeout time.Duration) *Interstitial {
	return &Interstitial{
		sdk:         adSDK,
		state:       newStateMachine(),
		loadTimeout: loadTimeout,
		showTimeout: showTimeout,
	}
}

// State returns the current slot state.
func (i *Interstitial) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.GetCurrentState()
}

// ResourceRef returns the ad unit the slot is bound to.
func (i *Interstitial) ResourceRef() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.resourceRef
}

// Loaded reports whether the slot holds unused inventory.
func (i *Interstitial) Loaded() bool {
	return i.State() == Loaded
}

// Ensure binds the slot to resourceRef. It is a no-op when already bound.
func (i *Interstitial) Ensure(resourceRef string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ensure(resourceRef)
}

// ensure must be called with i.mu held.
func (i *Interstitial) ensure(resourceRef string) {
	if i.handle != nil && i.resourceRef == resourceRef {
		return
	}

	if i.handle != nil {
		log.Infof("rebinding interstitial %s -> %s", i.resourceRef, resourceRef)
	}

	i.resourceRef = resourceRef
	i.handle = i.sdk.NewInterstitial(resourceRef)
	i.state.reset()
	// callers already joined to the old attempt still receive its outcome
	i.inflight = nil
	i.epoch++
}

// Load makes sure the slot for resourceRef holds loaded inventory.
// Concurrent callers share a single in-flight SDK load and observe its outcome.
func (i *Interstitial) Load(ctx context.Context, resourceRef string) bool {
	if resourceRef == "" {
		return false
	}

	i.mu.Lock()
	i.ensure(resourceRef)

	switch i.state.GetCurrentState() {
	case Loaded:
		i.mu.Unlock()
		return true
	case Loading:
		attempt := i.inflight
		i.mu.Unlock()
		return i.join(ctx, attempt)
	}

	if err := i.state.Transition(Loading); err != nil {
		i.mu.Unlock()
		log.Errorf("interstitial load: %v", err)
		return false
	}
	attempt := &loadAttempt{done: make(chan struct{})}
	i.inflight = attempt
	i.epoch++
	epoch := i.epoch
	handle := i.handle
	i.mu.Unlock()

	ok := WithTimeout(ctx, i.loadTimeout, false, func(ctx context.Context) bool {
		if err := handle.Load(ctx); err != nil {
			log.Warnf("interstitial load failed: %v", err)
			return false
		}
		return true
	})

	i.mu.Lock()
	if i.epoch == epoch {
		next := Unloaded
		if ok {
			next = Loaded
		}
		if err := i.state.Transition(next); err != nil {
			log.Errorf("interstitial load: %v", err)
		}
		i.inflight = nil
	}
	i.mu.Unlock()

	attempt.ok = ok
	close(attempt.done)

	return ok
}

func (i *Interstitial) join(ctx context.Context, attempt *loadAttempt) bool {
	log.Debug("joining in-flight interstitial load")
	return WithTimeout(ctx, i.loadTimeout, false, func(ctx context.Context) bool {
		<-attempt.done
		return attempt.ok
	})
}

// Show displays loaded inventory. It fails without touching the SDK unless
// the slot is Loaded, and leaves the slot Unloaded whatever the outcome.
func (i *Interstitial) Show(ctx context.Context) bool {
	i.mu.Lock()
	if i.state.GetCurrentState() != Loaded {
		i.mu.Unlock()
		return false
	}

	if err := i.state.Transition(Showing); err != nil {
		i.mu.Unlock()
		log.Errorf("interstitial show: %v", err)
		return false
	}
	i.epoch++
	epoch := i.epoch
	handle := i.handle
	i.mu.Unlock()

	ok := WithTimeout(ctx, i.showTimeout, false, func(ctx context.Context) bool {
		if err := handle.Show(ctx); err != nil {
			log.Warnf("interstitial show failed: %v", err)
			return false
		}
		return true
	})

	i.mu.Lock()
	if i.epoch == epoch {
		if err := i.state.Transition(Unloaded); err != nil {
			log.Errorf("interstitial show: %v", err)
		}
	}
	i.mu.Unlock()

	return ok
}
