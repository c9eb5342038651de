package model

import (
	"fmt"
	"sort"
	"sync"
)

// Resolver looks up models by id. Stores use it to follow associations.
type Resolver interface {
	Model(id string) (Model, bool)
}

// Catalog is the set of known models. Models are normalised on insert and a
// duplicate id is an error.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]Model
}

var _ Resolver = (*Catalog)(nil)

func NewCatalog(models ...Model) (*Catalog, error) {
	c := &Catalog{models: make(map[string]Model, len(models))}
	for _, m := range models {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustCatalog panics when NewCatalog fails. Intended for static definitions.
func MustCatalog(models ...Model) *Catalog {
	c, err := NewCatalog(models...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Add(m Model) error {
	normalized, err := m.Normalize()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models == nil {
		c.models = make(map[string]Model)
	}
	if _, exists := c.models[normalized.ID]; exists {
		return fmt.Errorf("model: %q already defined", normalized.ID)
	}
	c.models[normalized.ID] = normalized
	return nil
}

func (c *Catalog) Model(id string) (Model, bool) {
	if c == nil {
		return Model{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[id]
	return m, ok
}

// MustModel panics when id is unknown.
func (c *Catalog) MustModel(id string) Model {
	m, ok := c.Model(id)
	if !ok {
		panic(fmt.Sprintf("model: %q not defined", id))
	}
	return m
}

// IDs returns the sorted model ids.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.models))
	for id := range c.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
