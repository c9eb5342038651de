package demo

import (
	"context"
	"fmt"
	"os"
	"strings"

	"entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// Options configures the demo repositories.
type Options struct {
	ExportDir string
	Logger    *zap.Logger
}

type Option func(*Options)

// WithExportDir sets where generated files are written.
func WithExportDir(dir string) Option {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ExportDir = strings.TrimSpace(dir)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if o == nil || logger == nil {
			return
		}
		o.Logger = logger
	}
}

func newOptions(opts ...Option) Options {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ExportDir == "" {
		o.ExportDir = os.TempDir()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Register adds the library repositories to reg.
func Register(reg *repository.Registry, store query.Store, models model.Resolver, opts ...Option) error {
	o := newOptions(opts...)

	lookup := func(id string) (model.Model, error) {
		m, ok := models.Model(id)
		if !ok {
			return model.Model{}, adminerr.ConfigurationError{Subject: id, Msg: "model is not in the catalog"}
		}
		return m, nil
	}

	factories := map[string]func(model.Model) repository.Factory{
		"Author": func(m model.Model) repository.Factory { return authors(m, store) },
		"Book":   func(m model.Model) repository.Factory { return books(m, store, o) },
		"Title":  func(m model.Model) repository.Factory { return titles(m, store) },
		"Review": func(m model.Model) repository.Factory { return reviews(m, store) },
	}
	for _, id := range []string{"Author", "Book", "Title", "Review"} {
		m, err := lookup(id)
		if err != nil {
			return err
		}
		if err := reg.Register(id, factories[id](m)); err != nil {
			return err
		}
	}
	return nil
}

func authors(m model.Model, store query.Store) repository.Factory {
	return func() *repository.Repository {
		return repository.New(m, store,
			repository.WithFields(
				field.Number("id").WithOn(field.Index, field.Show),
				field.String("name"),
				field.Date("born_on"),
				field.Text("biography").WithOn(field.Edit, field.New, field.Show),
				field.HasAndBelongsToMany("books").WithOn(field.Edit, field.New, field.Show),
			),
			repository.WithDefaultSort(query.NewSortOrder("name", query.Asc)),
			repository.WithValidator(requirePresence("name")),
		)
	}
}

func books(m model.Model, store query.Store, o Options) repository.Factory {
	return func() *repository.Repository {
		return repository.New(m, store,
			repository.WithFields(
				field.HasMany("titles"),
				field.String("original_title"),
				field.Boolean("active"),
				field.Number("titles_count").
					WithOn(field.Index).
					WithReader(countTitles).
					WithSortFunc(sortByTitleCount),
				field.HasAndBelongsToMany("authors").WithOn(field.Edit, field.New, field.Show),
			),
			repository.WithIncludes("titles"),
			repository.WithTitle(func(rec record.Record) string {
				v, _ := rec.Attr("original_title")
				return fmt.Sprint(v)
			}),
			repository.WithValidator(requirePresence("original_title")),
			repository.WithActions(exportPDF(o), deactivate(m, store)),
		)
	}
}

func titles(m model.Model, store query.Store) repository.Factory {
	return func() *repository.Repository {
		return repository.New(m, store,
			repository.WithFields(
				field.BelongsTo("book").WithCollectionQuery(activeBooks),
				field.String("locale"),
				field.String("title"),
			),
			repository.WithValidator(requirePresence("title")),
		)
	}
}

func reviews(m model.Model, store query.Store) repository.Factory {
	return func() *repository.Repository {
		return repository.New(m, store,
			repository.WithFields(
				field.ID("id"),
				field.Text("body"),
				field.BelongsTo("reviewable").WithOn(field.Index, field.Show),
			),
		)
	}
}

// activeBooks hides retired books from the title's book picker.
func activeBooks(q query.Query) query.Query {
	return q.Where("active", true)
}

func countTitles(ctx context.Context, rec record.Record, _ string) (any, error) {
	relater, ok := rec.(record.Relater)
	if !ok {
		return 0, nil
	}
	titles, err := relater.Related(ctx, "titles")
	if err != nil {
		return nil, err
	}
	return len(record.List(titles)), nil
}

func sortByTitleCount(q query.Query, dir query.Direction) query.Query {
	return q.OrderBy(func(s *sql.Selector) {
		t := sql.Table("titles")
		s.LeftJoin(t).On(s.C("id"), t.C("book_id"))
		s.GroupBy(s.C("id"))
		count := sql.Count(t.C("id"))
		if dir == query.Desc {
			s.OrderBy(sql.Desc(count))
		} else {
			s.OrderBy(count)
		}
		s.OrderBy(s.C("id"))
	})
}

func requirePresence(columns ...string) repository.Validator {
	return func(_ context.Context, rec record.Record, values map[string]any) error {
		var verr adminerr.ValidationError
		for _, column := range columns {
			value, submitted := values[column]
			if !submitted && rec != nil {
				continue
			}
			if strings.TrimSpace(fmt.Sprint(valueOrEmpty(value))) == "" {
				verr.Add(column, "can't be blank")
			}
		}
		if verr.Empty() {
			return nil
		}
		return verr
	}
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
