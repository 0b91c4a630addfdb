package plans

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a plan ID does not resolve in the catalog.
var ErrNotFound = errors.New("plan not found")

// Catalog is the read-only plan registry. It preserves definition order and
// performs no I/O; both the lifecycle controller and the entitlement guard
// consult the same instance.
type Catalog struct {
	ordered []PlanDefinition
	byID    map[string]int
}

// NewCatalog builds a catalog from the given definitions.
// Definition order is preserved for listing.
func NewCatalog(definitions []PlanDefinition) (*Catalog, error) {
	if len(definitions) == 0 {
		return nil, errors.New("catalog requires at least one plan")
	}

	c := &Catalog{
		ordered: make([]PlanDefinition, len(definitions)),
		byID:    make(map[string]int, len(definitions)),
	}
	for i, def := range definitions {
		if def.ID == "" {
			return nil, fmt.Errorf("plan at index %d has no ID", i)
		}
		if _, exists := c.byID[def.ID]; exists {
			return nil, fmt.Errorf("duplicate plan ID %q", def.ID)
		}
		c.ordered[i] = def
		c.byID[def.ID] = i
	}
	return c, nil
}

// MustNewCatalog is NewCatalog that panics on invalid definitions.
// Intended for the bundled defaults loaded at startup.
func MustNewCatalog(definitions []PlanDefinition) *Catalog {
	c, err := NewCatalog(definitions)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns all plans in definition order. The returned slice is a copy.
func (c *Catalog) List() []PlanDefinition {
	out := make([]PlanDefinition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Get returns the plan with the given ID, or ErrNotFound.
func (c *Catalog) Get(id string) (PlanDefinition, error) {
	i, ok := c.byID[id]
	if !ok {
		return PlanDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.ordered[i], nil
}
