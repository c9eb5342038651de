// Package view renders fields. Every field kind maps to a Strategy holding one
// Component per Mode; the mapping lives in an explicit Registry built at
// startup, and the default components render through pongo2 templates.
package view

import (
	"context"

	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// Mode is the rendering context of a field.
type Mode string

const (
	ModeEdit  Mode = "edit"
	ModeIndex Mode = "index"
	ModeShow  Mode = "show"
)

// Modes lists every mode.
func Modes() []Mode { return []Mode{ModeEdit, ModeIndex, ModeShow} }

// ModeFor maps a page action to the mode its fields render in. The new and
// edit forms share the edit components.
func ModeFor(a field.Action) Mode {
	switch a {
	case field.Index:
		return ModeIndex
	case field.Show:
		return ModeShow
	default:
		return ModeEdit
	}
}

// Input is everything a component needs. Record is nil on the new form.
type Input struct {
	Field  repository.BoundField
	Record record.Record
	Errors []string
}

// Component renders one field in one mode.
type Component interface {
	Render(ctx context.Context, in Input) (string, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, in Input) (string, error)

func (fn ComponentFunc) Render(ctx context.Context, in Input) (string, error) {
	return fn(ctx, in)
}

// Nothing renders an empty string.
var Nothing Component = ComponentFunc(func(context.Context, Input) (string, error) { return "", nil })

// Strategy is the set of components of one field kind.
type Strategy struct {
	Edit  Component
	Index Component
	Show  Component
}

// For returns the component of mode, or Nothing when the strategy leaves the
// mode unset.
func (s Strategy) For(m Mode) Component {
	var c Component
	switch m {
	case ModeEdit:
		c = s.Edit
	case ModeIndex:
		c = s.Index
	case ModeShow:
		c = s.Show
	}
	if c == nil {
		return Nothing
	}
	return c
}
