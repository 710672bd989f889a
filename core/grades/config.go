package grades

import (
	"errors"
	"sync"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

var ErrPonderationNotFound = errors.New("ponderation not found")

type (
	// Repository persists the per-viewer ponderation across sessions.
	Repository interface {
		GetPonderation(viewerID int) (Ponderation, error)
		SavePonderation(viewerID int, p Ponderation) error
	}

	// Config owns one viewer's active ponderation. Mutation happens only
	// through the configuration modal: BeginEdit snapshots, SetWeight holds
	// in-progress (possibly invalid) values, Apply validates and commits,
	// Cancel restores the snapshot. Every committed state is written through
	// to the repository immediately.
	Config struct {
		mu       sync.RWMutex
		repo     Repository
		viewerID int
		current  Ponderation
		snapshot *Ponderation
		logger   core.Logger
	}
)

// NewConfig loads the last-persisted ponderation for the viewer, falling
// back to the documented defaults when absent or unreadable.
func NewConfig(repo Repository, viewerID int, logger core.Logger) *Config {
	c := &Config{repo: repo, viewerID: viewerID, logger: logger}
	p, err := repo.GetPonderation(viewerID)
	if err != nil {
		if !errors.Is(err, ErrPonderationNotFound) {
			logger.Warn("loading persisted ponderation failed, using defaults", err)
		}
		p = DefaultPonderation()
	}
	c.current = p
	return c
}

func (c *Config) Current() Ponderation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// BeginEdit snapshots the current config before the modal opens. Reentrant
// calls keep the original snapshot.
func (c *Config) BeginEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		snap := c.current
		c.snapshot = &snap
	}
}

// SetWeight updates one in-progress weight. The possibly-invalid sum is held
// transiently; only Apply enforces the sum invariant.
func (c *Config) SetWeight(field string, value float64) (Ponderation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.current.SetWeight(field, value)
	if err != nil {
		return c.current, err
	}
	c.current = p
	return p, nil
}

// Apply commits the in-progress edits, persists them and invalidates the
// snapshot. An invalid configuration is rejected and stays uncommitted.
func (c *Config) Apply() (Ponderation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.current.Validate(); err != nil {
		return c.current, err
	}
	if err := c.repo.SavePonderation(c.viewerID, c.current); err != nil {
		return c.current, err
	}
	c.snapshot = nil
	return c.current, nil
}

// Cancel restores the pre-modal snapshot, discarding in-progress edits.
func (c *Config) Cancel() Ponderation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil {
		c.current = *c.snapshot
		c.snapshot = nil
	}
	return c.current
}
