package requester

import (
	"sync"

	"github.com/vadiminshakov/adbridge/core/dto"
)

// Cache remembers the last outcome per command.
type Cache struct {
	store map[dto.Command]bool
	mu    sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{store: make(map[dto.Command]bool)}
}

// Record overwrites the outcome of cmd.
func (c *Cache) Record(cmd dto.Command, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[cmd] = ok
}

// Status returns the last outcome of cmd, or StatusUnknown.
func (c *Cache) Status(cmd dto.Command) dto.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ok, found := c.store[cmd]
	if !found {
		return dto.StatusUnknown
	}
	return dto.StatusOf(ok)
}
