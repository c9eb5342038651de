package repository

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// Permit extracts the submitted values of the fields shown on a form action.
// Collection fields yield []any of ids under their param key; blank foreign
// keys become nil.
func (r *Repository) Permit(a field.Action, form url.Values) map[string]any {
	values := make(map[string]any)
	for _, f := range r.FieldsFor(a) {
		if f.Kind() == field.KindID || f.Kind() == field.KindBlank {
			continue
		}
		param := f.PermittedParam(r.model)
		if param.Multiple {
			raw, ok := form[param.Key]
			if !ok {
				raw, ok = form[param.Key+"[]"]
			}
			if !ok {
				continue
			}
			ids := make([]any, 0, len(raw))
			for _, id := range raw {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			values[param.Key] = ids
			continue
		}
		if !form.Has(param.Key) {
			continue
		}
		value := form.Get(param.Key)
		if f.Kind() == field.KindBelongsTo && strings.TrimSpace(value) == "" {
			values[param.Key] = nil
			continue
		}
		values[param.Key] = value
	}
	return values
}

// Create validates values, then inserts the row and writes its collection
// associations in one transaction when the store supports it.
func (r *Repository) Create(ctx context.Context, values map[string]any) (record.Record, error) {
	if r.store == nil {
		return nil, errNoStore(r.model.ID)
	}
	if err := r.check(ctx, nil, values); err != nil {
		return nil, err
	}
	columns, collections := r.split(values)
	var id any
	err := r.atomically(ctx, func(store query.Store) error {
		rec, err := store.Insert(ctx, r.model, columns)
		if err != nil {
			return err
		}
		id = rec.ID()
		return r.writeCollections(ctx, store, id, collections)
	})
	if err != nil {
		return nil, err
	}
	return r.store.Find(ctx, r.model, id)
}

// Update validates and writes values onto the record with id, together with
// its collection associations.
func (r *Repository) Update(ctx context.Context, id any, values map[string]any) (record.Record, error) {
	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.check(ctx, current, values); err != nil {
		return nil, err
	}
	columns, collections := r.split(values)
	err = r.atomically(ctx, func(store query.Store) error {
		if _, err := store.Update(ctx, r.model, current.ID(), columns); err != nil {
			return err
		}
		return r.writeCollections(ctx, store, current.ID(), collections)
	})
	if err != nil {
		return nil, err
	}
	return r.store.Find(ctx, r.model, current.ID())
}

// atomically runs fn in a transaction when the store offers one.
func (r *Repository) atomically(ctx context.Context, fn func(query.Store) error) error {
	if tx, ok := r.store.(query.Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(r.store)
}

// Delete removes the record with id.
func (r *Repository) Delete(ctx context.Context, id any) error {
	if r.store == nil {
		return errNoStore(r.model.ID)
	}
	return r.store.Delete(ctx, r.model, id)
}

func (r *Repository) check(ctx context.Context, rec record.Record, values map[string]any) error {
	if r.validator == nil {
		return nil
	}
	err := r.validator(ctx, rec, values)
	if err == nil {
		return nil
	}
	if v, ok := adminerr.AsValidation(err); ok && v.Empty() {
		return nil
	}
	return err
}

type collectionWrite struct {
	field string
	ids   []any
}

// split separates column values from collection association ids.
func (r *Repository) split(values map[string]any) (map[string]any, []collectionWrite) {
	columns := make(map[string]any, len(values))
	var collections []collectionWrite
	for _, f := range r.fields {
		if !f.Many() {
			continue
		}
		key := f.ParamKey(r.model)
		raw, ok := values[key]
		if !ok {
			continue
		}
		ids, _ := raw.([]any)
		collections = append(collections, collectionWrite{field: f.Association(), ids: ids})
	}
	for key, value := range values {
		if r.model.HasColumn(key) {
			columns[key] = value
		}
	}
	return columns, collections
}

func (r *Repository) writeCollections(ctx context.Context, store query.Store, id any, writes []collectionWrite) error {
	if len(writes) == 0 {
		return nil
	}
	writer, ok := store.(query.AssociationWriter)
	if !ok {
		return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "store cannot write associations"}
	}
	for _, w := range writes {
		assoc, found := r.model.Association(w.field)
		if !found {
			return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "model declares no association " + w.field}
		}
		if err := writer.ReplaceAssociation(ctx, r.model, assoc, id, w.ids); err != nil {
			return err
		}
		r.logger.Debug("association replaced",
			zap.String("model", r.model.ID),
			zap.String("association", w.field),
			zap.Int("count", len(w.ids)),
		)
	}
	return nil
}

// Page is one page of an index listing.
type Page struct {
	Records []record.Record
	Number  int
	PerPage int
	Total   int
}

// Pages is the number of pages, at least one.
func (p Page) Pages() int {
	if p.PerPage <= 0 || p.Total <= p.PerPage {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages() }

// Paginate executes q for page number (1-based). perPage <= 0 uses the
// repository default.
func (r *Repository) Paginate(ctx context.Context, q query.Query, number, perPage int) (Page, error) {
	if r.store == nil {
		return Page{}, errNoStore(r.model.ID)
	}
	if perPage <= 0 {
		perPage = r.perPage
	}
	if number < 1 {
		number = 1
	}
	total, err := r.store.Count(ctx, q)
	if err != nil {
		return Page{}, err
	}
	page := Page{Number: number, PerPage: perPage, Total: total}
	if number > page.Pages() {
		page.Number = page.Pages()
	}
	records, err := r.store.All(ctx, q.Limit(perPage).Offset((page.Number-1)*perPage))
	if err != nil {
		return Page{}, err
	}
	page.Records = records
	return page, nil
}

func (r *Repository) validate() error {
	seen := make(map[string]struct{}, len(r.fields))
	for _, f := range r.fields {
		if f.Name() == "" {
			return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "field name is required"}
		}
		if _, dup := seen[f.Name()]; dup {
			return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "duplicate field " + f.Name()}
		}
		seen[f.Name()] = struct{}{}
	}
	keys := make(map[string]struct{}, len(r.actions))
	for _, a := range r.actions {
		if a == nil || a.Key() == "" {
			return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "action key is required"}
		}
		if _, dup := keys[a.Key()]; dup {
			return adminerr.ConfigurationError{Subject: r.model.ID, Msg: "duplicate action " + a.Key()}
		}
		keys[a.Key()] = struct{}{}
	}
	return nil
}
