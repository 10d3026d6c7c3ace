// Package snapshot caches the full ledger snapshot with a TTL, so the
// read endpoints and report sync do not hit the store on every request.
// Mutations invalidate the cache instead of waiting the TTL out.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"obras/internal/core"
)

// Source produces a full snapshot of the store.
type Source interface {
	ExportSnapshot(ctx context.Context) (core.Snapshot, error)
}

type Loader struct {
	source Source
	ttl    time.Duration

	mu       sync.Mutex
	cached   core.Snapshot
	loadedAt time.Time
	valid    bool
}

func NewLoader(source Source, ttl time.Duration) *Loader {
	return &Loader{source: source, ttl: ttl}
}

// Snapshot returns the cached snapshot, reloading from the source when
// the cache is stale or was invalidated. Concurrent callers share one
// reload.
func (l *Loader) Snapshot(ctx context.Context) (core.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.valid && time.Since(l.loadedAt) < l.ttl {
		return l.cached, nil
	}

	start := time.Now()
	snap, err := l.source.ExportSnapshot(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	l.cached = snap
	l.loadedAt = time.Now()
	l.valid = true

	slog.DebugContext(ctx, "Snapshot reloaded",
		"projects", len(snap.Projects),
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// Invalidate drops the cached snapshot so the next read reloads.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.valid = false
	l.mu.Unlock()
}
