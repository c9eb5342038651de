// Package model describes the persisted shapes the admin works with: a
// table, its columns, and the explicit association descriptors that replace
// any runtime reflection over records.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-openapi/inflect"
)

// DefaultPrimaryKey is used when a model does not name its key column.
const DefaultPrimaryKey = "id"

// Model identifies one persisted type.
type Model struct {
	ID           string        `json:"id" yaml:"-"`
	Table        string        `json:"table,omitempty" yaml:"table"`
	PrimaryKey   string        `json:"primaryKey,omitempty" yaml:"primaryKey"`
	Columns      []string      `json:"columns" yaml:"columns"`
	Associations []Association `json:"associations,omitempty" yaml:"associations"`
}

// Define returns a model with the conventional table name.
func Define(id string, columns ...string) Model {
	return Model{ID: id, Columns: append([]string(nil), columns...)}
}

func (m Model) WithTable(table string) Model {
	m.Table = table
	return m
}

func (m Model) WithPrimaryKey(column string) Model {
	m.PrimaryKey = column
	return m
}

// With appends association descriptors.
func (m Model) With(associations ...Association) Model {
	m.Associations = append(slices.Clone(m.Associations), associations...)
	return m
}

// Key returns the primary key column.
func (m Model) Key() string {
	if m.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return m.PrimaryKey
}

// TableName returns Table or the pluralised, underscored model id.
func (m Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return tableFor(m.ID)
}

// ParamKey is the singular, underscored name used for form parameters.
func (m Model) ParamKey() string {
	return inflect.Underscore(m.ID)
}

// PluralKey is the plural form of ParamKey, used for routes.
func (m Model) PluralKey() string {
	return inflect.Pluralize(m.ParamKey())
}

func (m Model) HasColumn(name string) bool {
	return slices.Contains(m.Columns, name)
}

// Association looks up an association by name.
func (m Model) Association(name string) (Association, bool) {
	for _, assoc := range m.Associations {
		if assoc.Name == name {
			return assoc, true
		}
	}
	return Association{}, false
}

// Normalize validates the model and fills derived association keys.
func (m Model) Normalize() (Model, error) {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return m, fmt.Errorf("model: id is required")
	}
	if len(m.Columns) == 0 {
		return m, fmt.Errorf("model: %s declares no columns", m.ID)
	}
	if !m.HasColumn(m.Key()) {
		return m, fmt.Errorf("model: %s columns must include primary key %q", m.ID, m.Key())
	}
	m.Columns = slices.Clone(m.Columns)

	seen := make(map[string]struct{}, len(m.Associations))
	normalized := make([]Association, 0, len(m.Associations))
	for _, assoc := range m.Associations {
		out, err := assoc.normalize(m)
		if err != nil {
			return m, err
		}
		if _, dup := seen[out.Name]; dup {
			return m, fmt.Errorf("model: %s declares association %q twice", m.ID, out.Name)
		}
		seen[out.Name] = struct{}{}
		normalized = append(normalized, out)
	}
	m.Associations = normalized
	return m, nil
}

func tableFor(id string) string {
	return inflect.Pluralize(inflect.Underscore(id))
}
