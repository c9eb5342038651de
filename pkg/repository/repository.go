// Package repository holds the per-model admin definition: which fields are
// shown on which action, how listings are searched and sorted, and how
// associated repositories are resolved.
//
// Repositories are built by a Factory for every use and are never shared
// between requests. Fields are values, and a field that needs its repository
// travels as a BoundField pair instead of holding a back-reference.
package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// DefaultPerPage is the index page size when none is configured.
const DefaultPerPage = 25

// TitleFunc renders the label of a record in pickers and headings.
type TitleFunc func(rec record.Record) string

// Validator inspects the values of a create or update. It returns an
// adminerr.ValidationError, or nil when the values are acceptable.
type Validator func(ctx context.Context, rec record.Record, values map[string]any) error

// Option configures a Repository.
type Option func(*Repository)

type Repository struct {
	model       model.Model
	fields      []field.Field
	defaultSort query.SortOrder
	includes    []string
	actions     []action.Action
	title       TitleFunc
	validator   Validator
	perPage     int

	store     query.Store
	registry  *Registry
	routes    Routes
	localizer i18n.Localizer
	logger    *zap.Logger

	routesSet    bool
	localizerSet bool
	loggerSet    bool
}

// WithFields sets the ordered field list.
func WithFields(fields ...field.Field) Option {
	return func(r *Repository) {
		r.fields = slices.Clone(fields)
	}
}

func WithDefaultSort(order query.SortOrder) Option {
	return func(r *Repository) {
		if !order.IsZero() {
			r.defaultSort = order
		}
	}
}

// WithIncludes sets the associations eager loaded by listings.
func WithIncludes(names ...string) Option {
	return func(r *Repository) {
		r.includes = slices.Clone(names)
	}
}

func WithActions(actions ...action.Action) Option {
	return func(r *Repository) {
		r.actions = slices.Clone(actions)
	}
}

func WithTitle(fn TitleFunc) Option {
	return func(r *Repository) {
		r.title = fn
	}
}

func WithValidator(fn Validator) Option {
	return func(r *Repository) {
		r.validator = fn
	}
}

func WithPerPage(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.perPage = n
		}
	}
}

func WithLocalizer(l i18n.Localizer) Option {
	return func(r *Repository) {
		r.localizer = l
		r.localizerSet = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
			r.loggerSet = true
		}
	}
}

func WithRoutes(routes Routes) Option {
	return func(r *Repository) {
		r.routes = routes
		r.routesSet = true
	}
}

// New returns a repository over m backed by store. Without WithFields every
// model column becomes a field: the primary key as an id field, the rest as
// strings.
func New(m model.Model, store query.Store, opts ...Option) *Repository {
	r := &Repository{
		model:       m,
		store:       store,
		defaultSort: query.NewSortOrder(m.Key(), query.Asc),
		perPage:     DefaultPerPage,
		routes:      NewRoutes(""),
		localizer:   i18n.NewLocalizer(nil, ""),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.fields == nil {
		r.fields = inferFields(m)
	}
	return r
}

func inferFields(m model.Model) []field.Field {
	out := make([]field.Field, 0, len(m.Columns))
	for _, column := range m.Columns {
		if column == m.Key() {
			out = append(out, field.ID(column))
			continue
		}
		out = append(out, field.String(column))
	}
	return out
}

func (r *Repository) Model() model.Model           { return r.model }
func (r *Repository) ID() string                   { return r.model.ID }
func (r *Repository) Store() query.Store           { return r.store }
func (r *Repository) Registry() *Registry          { return r.registry }
func (r *Repository) Routes() Routes               { return r.routes }
func (r *Repository) Localizer() i18n.Localizer    { return r.localizer }
func (r *Repository) Logger() *zap.Logger          { return r.logger }
func (r *Repository) DefaultSort() query.SortOrder { return r.defaultSort }
func (r *Repository) PerPage() int                 { return r.perPage }

// Localized returns a copy that resolves labels through l.
func (r *Repository) Localized(l i18n.Localizer) *Repository {
	clone := *r
	clone.localizer = l
	clone.localizerSet = true
	return &clone
}

// Fields returns the ordered field list.
func (r *Repository) Fields() []field.Field { return slices.Clone(r.fields) }

// FieldsFor returns the fields shown on action, in declaration order.
func (r *Repository) FieldsFor(a field.Action) []field.Field {
	out := make([]field.Field, 0, len(r.fields))
	for _, f := range r.fields {
		if f.AppearsOn(a) {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a field by name.
func (r *Repository) Field(name string) (field.Field, bool) {
	for _, f := range r.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// Bind pairs the named field with this repository.
func (r *Repository) Bind(name string) (BoundField, error) {
	f, ok := r.Field(name)
	if !ok {
		return BoundField{}, adminerr.NotFoundError{Resource: "field", Name: r.model.ID + "." + name}
	}
	return BoundField{field: f, repo: r}, nil
}

// BoundFieldsFor pairs every field shown on a with this repository.
func (r *Repository) BoundFieldsFor(a field.Action) []BoundField {
	fields := r.FieldsFor(a)
	out := make([]BoundField, 0, len(fields))
	for _, f := range fields {
		out = append(out, BoundField{field: f, repo: r})
	}
	return out
}

func (r *Repository) Includes() []string { return slices.Clone(r.includes) }

func (r *Repository) Actions() []action.Action { return slices.Clone(r.actions) }

// Action resolves a bulk action by key.
func (r *Repository) Action(key string) (action.Action, error) {
	for _, a := range r.actions {
		if a.Key() == key {
			return a, nil
		}
	}
	return nil, adminerr.NotFoundError{Resource: "action", Name: r.model.ID + "." + key}
}

// ControllerName is the plural, underscored model name used in routes.
func (r *Repository) ControllerName() string { return r.model.PluralKey() }

// PathFor builds the path of a page of this repository.
func (r *Repository) PathFor(route string, params map[string]string) string {
	return r.routes.PathFor(r.ControllerName(), route, params)
}

// Query returns the base query over the model with the eager-load list.
func (r *Repository) Query() query.Query {
	return query.All(r.model).Includes(r.includes...)
}

// FindAllOptions narrows a listing.
type FindAllOptions struct {
	Search string
	Scope  *query.Query
	Sort   *query.SortOrder
}

// FindAll composes the listing query. Scope replaces the base query when
// given. A non-blank Search is matched against every searchable attribute,
// and is ignored when there is none. A Sort naming an unknown or unsortable
// field falls back to the default order.
func (r *Repository) FindAll(opts FindAllOptions) query.Query {
	q := query.All(r.model)
	if opts.Scope != nil {
		q = *opts.Scope
	}
	q = q.Includes(r.includes...)

	if columns := r.searchColumns(); len(columns) > 0 {
		q = q.Search(columns, opts.Search)
	}

	if opts.Sort != nil && !opts.Sort.IsZero() {
		if sorted, ok := r.sortBy(q, *opts.Sort); ok {
			return sorted
		}
		r.logger.Debug("sort field not available, using default order",
			zap.String("model", r.model.ID),
			zap.String("sort", opts.Sort.Name()),
		)
	}
	if q.Ordered() {
		return q
	}
	if sorted, ok := r.sortBy(q, r.defaultSort); ok {
		return sorted
	}
	return r.defaultSort.Apply(q)
}

func (r *Repository) sortBy(q query.Query, order query.SortOrder) (query.Query, bool) {
	f, ok := r.Field(order.Name())
	if !ok || !f.Sortable() {
		return q, false
	}
	if fn := f.SortFunc(); fn != nil {
		return fn(q.Unordered(), order.Direction()), true
	}
	if !r.model.HasColumn(f.Name()) {
		return q, false
	}
	return q.Reorder(f.Name(), order.Direction()), true
}

func (r *Repository) searchColumns() []string {
	var columns []string
	for _, f := range r.fields {
		if f.Searchable() && r.model.HasColumn(f.Name()) {
			columns = append(columns, f.Name())
		}
	}
	return columns
}

// Records executes q.
func (r *Repository) Records(ctx context.Context, q query.Query) ([]record.Record, error) {
	if r.store == nil {
		return nil, errNoStore(r.model.ID)
	}
	return r.store.All(ctx, q)
}

// All runs FindAll and executes the result.
func (r *Repository) All(ctx context.Context, opts FindAllOptions) ([]record.Record, error) {
	return r.Records(ctx, r.FindAll(opts))
}

// Find returns the record with id or an adminerr.NotFoundError.
func (r *Repository) Find(ctx context.Context, id any) (record.Record, error) {
	if r.store == nil {
		return nil, errNoStore(r.model.ID)
	}
	if id == nil || record.IDString(id) == "" {
		return nil, adminerr.NotFoundError{Resource: r.model.ID}
	}
	return r.store.Find(ctx, r.model, id)
}

// FindMany returns the records that exist among ids, in the order the ids
// were given. Unknown ids are dropped.
func (r *Repository) FindMany(ctx context.Context, ids []any) ([]record.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := r.Records(ctx, r.Query().WhereIn(r.model.Key(), ids...))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]record.Record, len(records))
	for _, rec := range records {
		byID[record.IDOf(rec)] = rec
	}
	out := make([]record.Record, 0, len(records))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		key := record.IDString(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if rec, ok := byID[key]; ok {
			out = append(out, rec)
		}
	}
	if dropped := len(seen) - len(out); dropped > 0 {
		r.logger.Debug("ignoring missing records",
			zap.String("model", r.model.ID),
			zap.Int("dropped", dropped),
		)
	}
	return out, nil
}

// Title returns the display label of rec: the configured TitleFunc, else the
// name attribute, else title, else the record's string form.
func (r *Repository) Title(rec record.Record) string {
	if rec == nil {
		return ""
	}
	if r.title != nil {
		return r.title(rec)
	}
	for _, attr := range []string{"name", "title"} {
		if v, ok := rec.Attr(attr); ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	if s, ok := rec.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%s #%s", rec.Model(), record.IDOf(rec))
}

// SingularName is the translated model name.
func (r *Repository) SingularName() string {
	return r.localizer.T(ModelKey(r.model, "one"), humanize(r.model.ParamKey()))
}

// PluralName is the translated plural model name.
func (r *Repository) PluralName() string {
	return r.localizer.T(ModelKey(r.model, "other"), humanize(r.model.PluralKey()))
}

// Label is the translated label of f.
func (r *Repository) Label(f field.Field) string {
	return r.localizer.T(FieldKey(r.model, f.Name(), "label"), f.ColumnName())
}

// Hint is the translated hint of f, empty by default.
func (r *Repository) Hint(f field.Field) string {
	return r.localizer.T(FieldKey(r.model, f.Name(), "hint"), "")
}

func humanize(s string) string {
	if s == "" {
		return ""
	}
	return inflect.Humanize(s)
}

func errNoStore(modelID string) error {
	return adminerr.ConfigurationError{Subject: modelID, Msg: "repository has no store"}
}
