package group

import (
	"errors"
	"sync"

	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
)

var ErrNotFound = errors.New("group not found")

// Group is one teaching section. Immutable once fetched; the catalog is
// replaced wholesale on refetch, never patched in place.
type Group struct {
	ID        int         `json:"idgrupo"`
	Subject   string      `json:"materia"`
	Classroom string      `json:"aula"`
	Shift     string      `json:"jornada"`
	Teacher   string      `json:"docente"`
	Cycle     cycle.Cycle `json:"ciclo"`
}

// Catalog holds the list of groups for the resolved cycle plus the selection
// state feeding the roster and permission flows.
type Catalog struct {
	mu       sync.RWMutex
	cycle    cycle.Cycle
	groups   []Group
	selected int
	hasSel   bool
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Replace swaps the whole catalog for the given cycle. A previous selection
// survives only if the selected group is still present.
func (c *Catalog) Replace(cyc cycle.Cycle, groups []Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycle = cyc
	c.groups = groups
	if c.hasSel {
		c.hasSel = false
		for _, g := range groups {
			if g.ID == c.selected {
				c.hasSel = true
				break
			}
		}
	}
}

func (c *Catalog) Cycle() cycle.Cycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycle
}

func (c *Catalog) Groups() []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}

func (c *Catalog) Get(id int) (Group, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return Group{}, ErrNotFound
}

func (c *Catalog) Select(id int) (Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		if g.ID == id {
			c.selected = id
			c.hasSel = true
			return g, nil
		}
	}
	return Group{}, ErrNotFound
}

func (c *Catalog) Selected() (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasSel {
		return Group{}, false
	}
	for _, g := range c.groups {
		if g.ID == c.selected {
			return g, true
		}
	}
	return Group{}, false
}

func (c *Catalog) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasSel = false
}

// DeriveCycle derives the cycle from the selected group's own cycle field.
// It is the secondary source of truth consumed by cycle.Resolver.
func (c *Catalog) DeriveCycle() (cycle.Cycle, bool) {
	if g, ok := c.Selected(); ok && !g.Cycle.IsZero() {
		return g.Cycle, true
	}
	return "", false
}
