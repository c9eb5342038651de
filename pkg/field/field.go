// Package field describes how one model attribute or association is read,
// searched, sorted, and shown across the admin views.
//
// Field is a value type. Getters never modify it and every With* builder
// returns a modified copy, so a Field can be shared between repositories and
// requests without any of them observing another's configuration.
package field

import (
	"context"
	"slices"

	"github.com/go-openapi/inflect"

	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// Reader projects a value out of a record.
type Reader func(ctx context.Context, rec record.Record, name string) (any, error)

// SortFunc orders a query for computed or joined sort expressions.
type SortFunc func(q query.Query, dir query.Direction) query.Query

// CollectionQuery narrows the candidates offered for an association.
type CollectionQuery func(q query.Query) query.Query

// Group tells layouts where a field belongs on a page.
type Group string

const (
	Attributes   Group = "attributes"
	Associations Group = "associations"
)

type Field struct {
	name            string
	kind            Kind
	on              []Action
	reader          Reader
	searchable      *bool
	sortable        *bool
	sortFunc        SortFunc
	collectionQuery CollectionQuery
	association     string
}

// Of returns a field of kind named name with the kind's defaults.
func Of(kind Kind, name string) Field {
	return Field{name: name, kind: kind}
}

func Blank(name string) Field               { return Of(KindBlank, name) }
func Boolean(name string) Field             { return Of(KindBoolean, name) }
func Date(name string) Field                { return Of(KindDate, name) }
func DateTime(name string) Field            { return Of(KindDateTime, name) }
func File(name string) Field                { return Of(KindFile, name) }
func Image(name string) Field               { return Of(KindImage, name) }
func ID(name string) Field                  { return Of(KindID, name) }
func Number(name string) Field              { return Of(KindNumber, name) }
func String(name string) Field              { return Of(KindString, name) }
func Text(name string) Field                { return Of(KindText, name) }
func BelongsTo(name string) Field           { return Of(KindBelongsTo, name) }
func HasMany(name string) Field             { return Of(KindHasMany, name) }
func HasAndBelongsToMany(name string) Field { return Of(KindHasAndBelongsToMany, name) }

func (f Field) Name() string { return f.name }
func (f Field) Kind() Kind   { return f.kind }

// On returns the actions the field appears on.
func (f Field) On() []Action {
	if f.on == nil {
		return slices.Clone(defaultsFor(f.kind).on)
	}
	return slices.Clone(f.on)
}

// WithOn restricts the field to actions. Unknown and repeated actions are
// dropped.
func (f Field) WithOn(actions ...Action) Field {
	out := make([]Action, 0, len(actions))
	for _, action := range actions {
		if _, ok := ParseAction(string(action)); !ok || slices.Contains(out, action) {
			continue
		}
		out = append(out, action)
	}
	f.on = out
	return f
}

func (f Field) AppearsOn(action Action) bool {
	return slices.Contains(f.On(), action)
}

// Reader returns the configured reader or the default attribute reader.
func (f Field) Reader() Reader {
	if f.reader != nil {
		return f.reader
	}
	if f.IsAssociation() {
		return readAssociation(f.Association())
	}
	return ReadAttribute
}

func (f Field) WithReader(reader Reader) Field {
	f.reader = reader
	return f
}

func (f Field) Searchable() bool {
	if f.searchable != nil {
		return *f.searchable
	}
	return defaultsFor(f.kind).searchable
}

func (f Field) WithSearchable(searchable bool) Field {
	f.searchable = &searchable
	return f
}

// Sortable reports whether the field can order a listing, either by its
// column or through a SortFunc.
func (f Field) Sortable() bool {
	if f.sortFunc != nil {
		return true
	}
	if f.sortable != nil {
		return *f.sortable
	}
	return defaultsFor(f.kind).sortable
}

func (f Field) WithSortable(sortable bool) Field {
	f.sortable = &sortable
	if !sortable {
		f.sortFunc = nil
	}
	return f
}

// SortFunc returns the custom ordering, nil when the column is used.
func (f Field) SortFunc() SortFunc { return f.sortFunc }

func (f Field) WithSortFunc(fn SortFunc) Field {
	f.sortFunc = fn
	return f
}

// CollectionQuery returns the candidate transform, identity by default.
func (f Field) CollectionQuery() CollectionQuery {
	if f.collectionQuery != nil {
		return f.collectionQuery
	}
	return func(q query.Query) query.Query { return q }
}

func (f Field) WithCollectionQuery(fn CollectionQuery) Field {
	f.collectionQuery = fn
	return f
}

// Association returns the association the field reads, its name by default.
func (f Field) Association() string {
	if f.association != "" {
		return f.association
	}
	return f.name
}

func (f Field) WithAssociation(name string) Field {
	f.association = name
	return f
}

func (f Field) IsAssociation() bool { return defaultsFor(f.kind).association }

// Many reports a collection-valued association.
func (f Field) Many() bool { return defaultsFor(f.kind).many }

// Value applies the reader. A nil record has no value.
func (f Field) Value(ctx context.Context, rec record.Record) (any, error) {
	if rec == nil {
		return nil, nil
	}
	return f.Reader()(ctx, rec, f.name)
}

// ColumnName is the default human label.
func (f Field) ColumnName() string {
	if f.name == "" {
		return ""
	}
	return inflect.Humanize(f.name)
}

// Group places collection associations in their own section on show pages.
func (f Field) Group(action Action) Group {
	if f.Many() && action == Show {
		return Associations
	}
	return Attributes
}

// Param describes the request parameter a field accepts.
type Param struct {
	Key      string
	Multiple bool
}

// ParamKey is the form parameter name. Belongs-to fields submit the foreign
// key attribute, collection fields a list of ids.
func (f Field) ParamKey(m model.Model) string {
	switch {
	case f.kind == KindBelongsTo:
		if assoc, ok := m.Association(f.Association()); ok && assoc.ForeignKey != "" {
			return assoc.ForeignKey
		}
		return f.name + "_id"
	case f.Many():
		return inflect.Singularize(f.Association()) + "_ids"
	default:
		return f.name
	}
}

func (f Field) PermittedParam(m model.Model) Param {
	return Param{Key: f.ParamKey(m), Multiple: f.Many()}
}

// ReadAttribute is the default reader.
func ReadAttribute(_ context.Context, rec record.Record, name string) (any, error) {
	value, _ := rec.Attr(name)
	return value, nil
}

func readAssociation(association string) Reader {
	return func(ctx context.Context, rec record.Record, name string) (any, error) {
		if relater, ok := rec.(record.Relater); ok {
			return relater.Related(ctx, association)
		}
		value, _ := rec.Attr(name)
		return value, nil
	}
}
