// Package record provides the Record collaborator consumed by repositories:
// attribute access plus lazily loaded associations.
package record

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
)

// Record is a single persisted (or to-be-persisted) row.
type Record interface {
	Model() string
	ID() any
	Attr(name string) (any, bool)
}

// Relater is implemented by records that can load their associations.
type Relater interface {
	Related(ctx context.Context, name string) (any, error)
}

// LoadFunc resolves an association value for row. Single-valued
// associations return a Record or nil, collections return []Record.
type LoadFunc func(ctx context.Context, row *Row, name string) (any, error)

// Row is the map-backed Record produced by stores.
type Row struct {
	model  string
	key    string
	values map[string]any

	loader LoadFunc

	mu      sync.Mutex
	related map[string]any
}

var (
	_ Record  = (*Row)(nil)
	_ Relater = (*Row)(nil)
)

// NewRow builds a row for model whose primary key column is key.
func NewRow(model, key string, values map[string]any) *Row {
	if values == nil {
		values = make(map[string]any)
	}
	return &Row{model: model, key: key, values: values}
}

// New returns an unsaved row with no attribute values.
func New(model, key string) *Row {
	return NewRow(model, key, nil)
}

// WithLoader attaches the association loader. It is meant to be called once,
// by the store that produced the row.
func (r *Row) WithLoader(fn LoadFunc) *Row {
	r.loader = fn
	return r
}

func (r *Row) Model() string { return r.model }

func (r *Row) ID() any {
	if r == nil {
		return nil
	}
	return r.values[r.key]
}

// Key returns the primary key column.
func (r *Row) Key() string { return r.key }

func (r *Row) Attr(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Values returns a copy of the attribute map.
func (r *Row) Values() map[string]any {
	return maps.Clone(r.values)
}

// Persisted reports whether the row carries a primary key value.
func (r *Row) Persisted() bool {
	return r != nil && r.ID() != nil
}

// SetRelated caches an association value, typically from eager loading.
func (r *Row) SetRelated(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.related == nil {
		r.related = make(map[string]any)
	}
	r.related[name] = value
}

// Related returns the cached association value, loading it on first use.
func (r *Row) Related(ctx context.Context, name string) (any, error) {
	r.mu.Lock()
	if v, ok := r.related[name]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	if r.loader == nil {
		if !r.Persisted() {
			return nil, nil
		}
		return nil, fmt.Errorf("record: %s has no loader for %q", r.model, name)
	}
	v, err := r.loader(ctx, r, name)
	if err != nil {
		return nil, err
	}
	r.SetRelated(name, v)
	return v, nil
}

func (r *Row) String() string {
	if r == nil {
		return ""
	}
	if !r.Persisted() {
		return "New " + r.model
	}
	return fmt.Sprintf("%s #%s", r.model, IDString(r.ID()))
}

// IDString renders an id value the way it appears in parameters.
func IDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// IDOf returns IDString(rec.ID()), or "" for a nil record.
func IDOf(rec Record) string {
	if rec == nil {
		return ""
	}
	return IDString(rec.ID())
}

// List normalises an association value into a slice of records.
func List(value any) []Record {
	switch v := value.(type) {
	case nil:
		return nil
	case []Record:
		return v
	case Record:
		return []Record{v}
	case []*Row:
		out := make([]Record, 0, len(v))
		for _, row := range v {
			out = append(out, row)
		}
		return out
	default:
		return nil
	}
}
