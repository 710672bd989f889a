package permission

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

// ErrUnavailable marks the group-permission endpoint as absent (404 or
// connection refused), as opposed to merely slow. Fetchers wrap it so the
// gate can fall back to the role-based rule.
var ErrUnavailable = errors.New("group permission endpoint unavailable")

type (
	// Fetcher resolves the group-specific "grading enabled" override.
	Fetcher interface {
		GroupPermission(ctx context.Context, docenteID, groupID int) (bool, error)
	}

	gateKey struct {
		docenteID int
		groupID   int
	}

	decision struct {
		enabled  bool
		fallback bool
	}

	// Gate answers "may this viewer enter grade editing for this group".
	// A fetched group-specific override is authoritative; while it is in
	// flight access is denied (fail-closed); if the endpoint is unavailable
	// the decano/docente role rule applies. Every answer is AND-ed with the
	// global notes-enabled flag.
	Gate struct {
		fetcher Fetcher
		logger  core.Logger

		mu        sync.RWMutex
		global    bool
		decisions map[gateKey]decision
	}
)

func NewGate(fetcher Fetcher, globalEnabled bool, logger core.Logger) *Gate {
	return &Gate{
		fetcher:   fetcher,
		logger:    logger,
		global:    globalEnabled,
		decisions: make(map[gateKey]decision),
	}
}

func (g *Gate) SetGlobalEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.global = enabled
}

// Resolve fetches the group-specific permission for (viewer, group) and
// caches the decision. A failed fetch never propagates: it degrades to the
// role-based fallback and is logged.
func (g *Gate) Resolve(ctx context.Context, viewer user.User, groupID int) bool {
	key := gateKey{docenteID: viewer.RefID, groupID: groupID}

	enabled, err := g.fetcher.GroupPermission(ctx, viewer.RefID, groupID)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			g.logger.Warn("group permission fetch failed, using role fallback", err)
		}
		g.mu.Lock()
		g.decisions[key] = decision{enabled: viewer.IsDecano() || viewer.IsDocente(), fallback: true}
		allowed := g.decisions[key].enabled && g.global
		g.mu.Unlock()
		return allowed
	}

	g.mu.Lock()
	g.decisions[key] = decision{enabled: enabled}
	allowed := enabled && g.global
	g.mu.Unlock()
	return allowed
}

// Allowed answers from the cached decision. While no decision has been
// resolved for (viewer, group) — i.e. the fetch is still in flight — access
// is denied rather than guessed.
func (g *Gate) Allowed(viewer user.User, groupID int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.decisions[gateKey{docenteID: viewer.RefID, groupID: groupID}]
	if !ok {
		return false
	}
	return d.enabled && g.global
}

// Refresh drops the cached decision and re-resolves. Call it when the group
// changes, when the viewer reference id becomes available, and when the page
// regains foreground focus (an administrator may have toggled permissions
// from another session meanwhile).
func (g *Gate) Refresh(ctx context.Context, viewer user.User, groupID int) bool {
	g.mu.Lock()
	delete(g.decisions, gateKey{docenteID: viewer.RefID, groupID: groupID})
	g.mu.Unlock()
	return g.Resolve(ctx, viewer, groupID)
}
