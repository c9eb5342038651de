package view

import (
	"slices"
	"sync"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
)

// Registry maps field kinds to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[field.Kind]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[field.Kind]Strategy)}
}

// Register adds the strategy of kind. A kind can be registered once; use
// Replace to swap a default.
func (r *Registry) Register(kind field.Kind, s Strategy) error {
	if kind == "" {
		return adminerr.ConfigurationError{Subject: "view", Msg: "field kind is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[kind]; exists {
		return adminerr.ConfigurationError{Subject: string(kind), Msg: "view strategy already registered"}
	}
	r.strategies[kind] = s
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(kind field.Kind, s Strategy) {
	if err := r.Register(kind, s); err != nil {
		panic(err)
	}
}

// Replace sets the strategy of kind, registered or not.
func (r *Registry) Replace(kind field.Kind, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[kind] = s
}

// Lookup returns the strategy of kind.
func (r *Registry) Lookup(kind field.Kind) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[kind]
	if !ok {
		return Strategy{}, adminerr.ConfigurationError{Subject: string(kind), Msg: "no view strategy for field kind"}
	}
	return s, nil
}

// ComponentFor returns the component rendering f on a page of action a.
func (r *Registry) ComponentFor(f field.Field, a field.Action) (Component, error) {
	s, err := r.Lookup(f.Kind())
	if err != nil {
		return nil, err
	}
	return s.For(ModeFor(a)), nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []field.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]field.Kind, 0, len(r.strategies))
	for kind := range r.strategies {
		out = append(out, kind)
	}
	slices.Sort(out)
	return out
}
