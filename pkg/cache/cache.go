// Package cache keeps the most recent reputation score per identity.
package cache

import (
	"sync"

	"github.com/mchmarny/trustchain/pkg/identity"
)

// Reputation maps an identity to its last computed score. Writes are
// last-write-wins; entries never expire and the map is unbounded.
type Reputation struct {
	mu      sync.RWMutex
	entries map[identity.Identity]float64
}

// New returns an empty cache.
func New() *Reputation {
	return &Reputation{
		entries: make(map[identity.Identity]float64),
	}
}

// Get returns the cached score for id, or 0 when there is none.
func (c *Reputation) Get(id identity.Identity) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// Lookup returns the cached score for id and whether it was present.
func (c *Reputation) Lookup(id identity.Identity) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[id]
	return v, ok
}

// Set stores score for id, replacing any previous value.
func (c *Reputation) Set(id identity.Identity, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = score
}

// Len returns the number of cached identities.
func (c *Reputation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
