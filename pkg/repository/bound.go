package repository

import (
	"context"
	"slices"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// BoundField is a field paired with the repository that declared it. Both
// halves are read-only; components receive the pair instead of a field that
// points back at its repository.
type BoundField struct {
	field field.Field
	repo  *Repository
}

// Bound pairs f with repo.
func Bound(f field.Field, repo *Repository) BoundField {
	return BoundField{field: f, repo: repo}
}

func (b BoundField) Field() field.Field      { return b.field }
func (b BoundField) Repository() *Repository { return b.repo }
func (b BoundField) Name() string            { return b.field.Name() }
func (b BoundField) Kind() field.Kind        { return b.field.Kind() }
func (b BoundField) Label() string           { return b.repo.Label(b.field) }
func (b BoundField) Hint() string            { return b.repo.Hint(b.field) }
func (b BoundField) Param() field.Param      { return b.field.PermittedParam(b.repo.model) }
func (b BoundField) ParamKey() string        { return b.field.ParamKey(b.repo.model) }

func (b BoundField) Value(ctx context.Context, rec record.Record) (any, error) {
	return b.field.Value(ctx, rec)
}

// Association returns the descriptor the field reads.
func (b BoundField) Association() (model.Association, error) {
	if !b.field.IsAssociation() {
		return model.Association{}, adminerr.ConfigurationError{
			Subject: b.subject(),
			Msg:     "field is not an association",
		}
	}
	assoc, ok := b.repo.model.Association(b.field.Association())
	if !ok {
		return model.Association{}, adminerr.ConfigurationError{
			Subject: b.subject(),
			Msg:     "model declares no association " + b.field.Association(),
		}
	}
	return assoc, nil
}

// AssociatedRepository resolves the repository of the association target.
// Polymorphic associations resolve from the model of the current value; with
// no value there is nothing to resolve and both results are nil.
func (b BoundField) AssociatedRepository(ctx context.Context, rec record.Record) (*Repository, error) {
	assoc, err := b.Association()
	if err != nil {
		return nil, err
	}
	if b.repo.registry == nil {
		return nil, adminerr.ConfigurationError{Subject: b.subject(), Msg: "repository is not bound to a registry"}
	}
	if !assoc.Polymorphic {
		return b.repo.registry.For(assoc.Target)
	}

	value, err := b.field.Value(ctx, rec)
	if err != nil {
		return nil, err
	}
	target, ok := value.(record.Record)
	if !ok || target == nil {
		return nil, nil
	}
	return b.repo.registry.For(target.Model())
}

// AssociatedRecord returns the single associated record, nil when unset.
func (b BoundField) AssociatedRecord(ctx context.Context, rec record.Record) (record.Record, error) {
	value, err := b.field.Value(ctx, rec)
	if err != nil {
		return nil, err
	}
	if list := record.List(value); len(list) > 0 {
		return list[0], nil
	}
	return nil, nil
}

// AssociatedRecords returns the associated records of a collection field.
func (b BoundField) AssociatedRecords(ctx context.Context, rec record.Record) ([]record.Record, error) {
	value, err := b.field.Value(ctx, rec)
	if err != nil {
		return nil, err
	}
	return record.List(value), nil
}

// SelectedIDs returns the ids of the current value, in order.
func (b BoundField) SelectedIDs(ctx context.Context, rec record.Record) ([]string, error) {
	if rec == nil {
		return nil, nil
	}
	records, err := b.AssociatedRecords(ctx, rec)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id := record.IDOf(r); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// LabelFor renders an associated record with the target repository's title.
func (b BoundField) LabelFor(ctx context.Context, rec, target record.Record) string {
	if target == nil {
		return ""
	}
	repo, err := b.AssociatedRepository(ctx, rec)
	if err != nil || repo == nil {
		if s, ok := target.(interface{ String() string }); ok {
			return s.String()
		}
		return record.IDOf(target)
	}
	return repo.Title(target)
}

// Collection returns the candidate query for the field: the target's listing
// filtered by search, then narrowed by the field's collection query.
func (b BoundField) Collection(target *Repository, search string) query.Query {
	return b.field.CollectionQuery()(target.FindAll(FindAllOptions{Search: search}))
}

// Scope returns the query selecting the records associated with owner.
func (b BoundField) Scope(target *Repository, owner record.Record) (query.Query, error) {
	assoc, err := b.Association()
	if err != nil {
		return query.Query{}, err
	}
	return query.ForAssociation(assoc, target.model, owner)
}

// ShowFields lists the target columns displayed for a collection field: the
// target's index fields without the one pointing back at the owner.
func (b BoundField) ShowFields(target *Repository) []field.Field {
	fields := target.FieldsFor(field.Index)
	assoc, err := b.Association()
	if err != nil || assoc.InverseOf == "" {
		return fields
	}
	return slices.DeleteFunc(fields, func(f field.Field) bool {
		return f.Name() == assoc.InverseOf || f.Association() == assoc.InverseOf
	})
}

func (b BoundField) subject() string {
	return b.repo.model.ID + "." + b.field.Name()
}
