package cycle

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

// Resolution status.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

type (
	// Source is the primary source of the current academic cycle.
	Source interface {
		CurrentCycle(ctx context.Context) (string, error)
	}

	// CatalogSource derives a cycle from an already-fetched group catalog.
	// It is the secondary source of truth used when the primary source fails.
	CatalogSource interface {
		DeriveCycle() (Cycle, bool)
	}

	// Resolver owns the "current academic cycle" resolution lifecycle:
	// Idle -> Loading -> Resolved, or Loading -> Failed with an optional
	// catalog-derived fallback.
	Resolver struct {
		src     Source
		catalog CatalogSource
		logger  core.Logger

		mu       sync.RWMutex
		status   Status
		value    Cycle
		fallback bool // value came from the catalog or a manual override
		err      error
	}
)

func NewResolver(src Source, catalog CatalogSource, logger core.Logger) *Resolver {
	return &Resolver{src: src, catalog: catalog, logger: logger}
}

// Resolve attempts resolution through the primary source. On failure it
// derives the cycle from the catalog's selected group when possible;
// otherwise it stays failed with the reason retrievable via Err.
func (r *Resolver) Resolve(ctx context.Context) (Cycle, error) {
	r.mu.Lock()
	if r.status == StatusLoading {
		// a primary call is already in flight; report current value
		value := r.value
		r.mu.Unlock()
		return value, nil
	}
	r.status = StatusLoading
	r.mu.Unlock()

	raw, err := r.src.CurrentCycle(ctx)
	if err == nil {
		var c Cycle
		if c, err = Parse(raw); err == nil {
			r.mu.Lock()
			r.status = StatusResolved
			r.value = c
			r.fallback = false
			r.err = nil
			r.mu.Unlock()
			return c, nil
		}
		err = errors.Wrapf(err, "primary source returned malformed cycle %q", raw)
	}

	// primary failed; try deriving from the group catalog
	if r.catalog != nil {
		if c, ok := r.catalog.DeriveCycle(); ok {
			r.logger.Warn("cycle resolution fell back to group catalog", err)
			r.mu.Lock()
			r.status = StatusResolved
			r.value = c
			r.fallback = true
			r.err = nil
			r.mu.Unlock()
			return c, nil
		}
	}

	err = errors.Wrap(err, "resolving current cycle")
	r.mu.Lock()
	r.status = StatusFailed
	r.err = err
	r.mu.Unlock()
	return "", err
}

// EnsureResolved arms a one-shot safety net: if no resolution happened within
// the grace period (and no primary call is still in flight), Resolve is
// re-attempted once. The returned stop function cancels the timer; call it on
// teardown.
func (r *Resolver) EnsureResolved(ctx context.Context, grace time.Duration) (stop func()) {
	timer := time.AfterFunc(grace, func() {
		r.mu.RLock()
		status := r.status
		r.mu.RUnlock()
		if status == StatusResolved || status == StatusLoading {
			return
		}
		if _, err := r.Resolve(ctx); err != nil {
			r.logger.Warn("deferred cycle resolution failed", err)
		}
	})
	return func() { timer.Stop() }
}

// Set force-sets the resolved cycle (manual override or debounced user input
// committed upstream). It clears any error state and marks resolution
// complete without re-invoking the primary source.
func (r *Resolver) Set(c Cycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusResolved
	r.value = c
	r.fallback = true
	r.err = nil
}

// Rearm resets the resolver to Idle so the next authenticated navigation
// triggers a fresh resolution.
func (r *Resolver) Rearm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusIdle
	r.value = ""
	r.fallback = false
	r.err = nil
}

func (r *Resolver) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Value returns the resolved cycle and whether resolution has completed.
func (r *Resolver) Value() (Cycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.status == StatusResolved
}

// Fallback reports whether the current value is non-authoritative
// (catalog-derived or manually overridden).
func (r *Resolver) Fallback() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

func (r *Resolver) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}
