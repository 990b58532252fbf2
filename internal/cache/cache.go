// Package cache provides the in-process caches used for calendar grids and
// remote lookups.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Clear drops every entry. Writers call it to invalidate derived data.
	Clear()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches.
type Manager struct {
	caches map[string]Cleaner
}

func NewManager() *Manager {
	return &Manager{caches: make(map[string]Cleaner)}
}

// Register adds a cache under name. Register before calling Run.
func (m *Manager) Register(name string, c Cleaner) {
	m.caches[name] = c
}

// Sweep cleans every registered cache once and returns the total removed.
func (m *Manager) Sweep(ctx context.Context) int {
	total := 0
	for name, c := range m.caches {
		if n := c.CleanExpired(); n > 0 {
			slog.DebugContext(ctx, "Cache sweep", "cache", name, "removed", n)
			total += n
		}
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
