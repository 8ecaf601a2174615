package keyword

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Provider supplies the current active keyword texts. *Store satisfies it.
type Provider interface {
	ActiveTexts(ctx context.Context) ([]string, error)
}

// Cache holds an immutable snapshot of the active keyword texts for the hot
// evaluation path. Reads are lock-free and always see a complete list, never
// a partially applied update: Refresh swaps in a freshly built slice
// atomically. Writes are rare (operator commands, periodic refresh), reads
// happen on every message.
type Cache struct {
	provider Provider
	snapshot atomic.Pointer[[]string]
}

// NewCache creates a cache with an empty snapshot. Call Refresh before
// serving traffic so the first evaluations see the stored set.
func NewCache(provider Provider) *Cache {
	c := &Cache{provider: provider}
	empty := []string{}
	c.snapshot.Store(&empty)
	return c
}

// Snapshot returns the current active keyword texts. Callers must treat the
// slice as read-only. An empty snapshot is meaningful: the matcher falls back
// to the built-in defaults via EffectiveSet.
func (c *Cache) Snapshot() []string {
	return *c.snapshot.Load()
}

// Refresh rebuilds the snapshot from the provider and swaps it in atomically.
func (c *Cache) Refresh(ctx context.Context) error {
	texts, err := c.provider.ActiveTexts(ctx)
	if err != nil {
		return err
	}
	if texts == nil {
		texts = []string{}
	}
	c.snapshot.Store(&texts)
	return nil
}

// Run refreshes the snapshot on the given interval until ctx is cancelled.
// Refresh failures keep the previous snapshot; a database blip must not blank
// the keyword set mid-flight.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[keywords] cache refresh loop stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				log.Printf("[keywords] cache refresh failed, keeping previous snapshot: %v", err)
			}
		}
	}
}
