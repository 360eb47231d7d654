package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the read-through surface services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries in bulk.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on an interval.
type Manager struct {
	caches   map[string]Cleaner
	interval time.Duration
}

func NewManager(interval time.Duration) *Manager {
	return &Manager{caches: make(map[string]Cleaner), interval: interval}
}

// Register adds a named cache to the sweep.
func (m *Manager) Register(name string, c Cleaner) {
	m.caches[name] = c
}

// Sweep cleans every registered cache once and returns the number of dropped entries.
func (m *Manager) Sweep(ctx context.Context) int {
	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			slog.DebugContext(ctx, "Cache entries expired", "cache", name, "removed", n)
		}
		total += n
	}
	return total
}

// Run sweeps until ctx is cancelled. It always returns nil so it can sit in an errgroup.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
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
