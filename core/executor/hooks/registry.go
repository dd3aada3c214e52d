package hooks

import (
	"sync"

	"github.com/vadiminshakov/adbridge/core/dto"
)

// Hook defines the interface for executor hooks.
type Hook interface {
	OnRequest(req *dto.Request) bool
	OnReply(resp *dto.Response, reason dto.Reason)
}

// Registry manages a collection of hooks.
type Registry struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]Hook, 0),
	}
}

// Register adds a new hook to the registry.
func (r *Registry) Register(hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// ExecuteRequest runs all registered request hooks.
// Returns false if any hook returns false.
func (r *Registry) ExecuteRequest(req *dto.Request) bool {
	for _, hook := range r.snapshot() {
		if !hook.OnRequest(req) {
			return false
		}
	}
	return true
}

// ExecuteReply runs all registered reply hooks.
func (r *Registry) ExecuteReply(resp *dto.Response, reason dto.Reason) {
	for _, hook := range r.snapshot() {
		hook.OnReply(resp, reason)
	}
}

// Count returns the number of registered hooks
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

func (r *Registry) snapshot() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Hook(nil), r.hooks...)
}
