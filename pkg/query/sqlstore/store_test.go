package sqlstore_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/testsupport"
)

type fixture struct {
	store   *sqlstore.Store
	catalog *model.Catalog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testsupport.OpenSQLite(t, append(append([]string{}, demo.Schema...), demo.Seeds...)...)
	catalog := demo.MustCatalog()
	return fixture{store: sqlstore.New(db, catalog), catalog: catalog}
}

func (f fixture) model(id string) model.Model { return f.catalog.MustModel(id) }

func ids(records []record.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, record.IDOf(rec))
	}
	return out
}

func TestAllSearchesSortsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	books := f.model("Book")

	q := query.All(books).Search([]string{"original_title"}, "the").Order("original_title", query.Desc)
	records, err := f.store.All(ctx, q)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if diff := cmp.Diff([]string{"1"}, ids(records)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	for _, term := range []string{"_", "%"} {
		wild, err := f.store.All(ctx, query.All(books).Search([]string{"original_title"}, term))
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if len(wild) != 0 {
			t.Fatalf("%q must match literally, got %v", term, ids(wild))
		}
	}

	n, err := f.store.Count(ctx, query.All(books).Where("active", true).Limit(1))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected two active books, got %d", n)
	}
}

func TestIncludesPreloadAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records, err := f.store.All(ctx, query.All(f.model("Book")).Includes("titles", "authors").Order("id", query.Asc))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	first := records[0].(*record.Row)
	titles, err := first.Related(ctx, "titles")
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	if got := len(record.List(titles)); got != 2 {
		t.Fatalf("expected two titles, got %d", got)
	}
	authors, err := first.Related(ctx, "authors")
	if err != nil {
		t.Fatalf("authors: %v", err)
	}
	if diff := cmp.Diff([]string{"1"}, ids(record.List(authors))); diff != "" {
		t.Fatalf("authors mismatch (-want +got):\n%s", diff)
	}

	third := records[2].(*record.Row)
	if titles, _ := third.Related(ctx, "titles"); len(record.List(titles)) != 0 {
		t.Fatalf("book without titles must load none")
	}
}

func TestLazyBelongsToAndPolymorphic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	title, err := f.store.Find(ctx, f.model("Title"), "3")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	book, err := title.(record.Relater).Related(ctx, "book")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if v, _ := book.(record.Record).Attr("original_title"); v != "Dune" {
		t.Fatalf("unexpected book: %v", v)
	}

	reviews, err := f.store.All(ctx, query.All(f.model("Review")).Includes("reviewable").Order("id", query.Asc))
	if err != nil {
		t.Fatalf("reviews: %v", err)
	}
	want := []string{"Book", "Author", ""}
	for i, rec := range reviews {
		target, err := rec.(record.Relater).Related(ctx, "reviewable")
		if err != nil {
			t.Fatalf("reviewable %d: %v", i, err)
		}
		got := ""
		if target != nil {
			got = target.(record.Record).Model()
		}
		if got != want[i] {
			t.Fatalf("review %d: expected %q, got %q", i, want[i], got)
		}
	}

	if _, err := title.(record.Relater).Related(ctx, "missing"); !adminerr.IsNotFound(err) {
		t.Fatalf("unknown association must be not found, got %v", err)
	}
}

func TestWriteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authors := f.model("Author")

	created, err := f.store.Insert(ctx, authors, map[string]any{"name": "Carol", "ignored": "x"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if record.IDOf(created) != "3" {
		t.Fatalf("expected id 3, got %s", record.IDOf(created))
	}

	updated, err := f.store.Update(ctx, authors, created.ID(), map[string]any{"id": int64(99), "name": "Caroline"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v, _ := updated.Attr("name"); v != "Caroline" || record.IDOf(updated) != "3" {
		t.Fatalf("update must keep the key: %v %s", v, record.IDOf(updated))
	}

	if err := f.store.Delete(ctx, authors, created.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.Find(ctx, authors, created.ID()); !adminerr.IsNotFound(err) {
		t.Fatalf("deleted record must be not found, got %v", err)
	}
	if err := f.store.Delete(ctx, authors, created.ID()); !adminerr.IsNotFound(err) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
}

func TestReplaceAssociation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authors := f.model("Author")
	books, _ := authors.Association("books")

	if err := f.store.ReplaceAssociation(ctx, authors, books, int64(1), []any{"2", "3"}); err != nil {
		t.Fatalf("replace habtm: %v", err)
	}
	alice, err := f.store.Find(ctx, authors, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	related, err := alice.(record.Relater).Related(ctx, "books")
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	if diff := cmp.Diff([]string{"2", "3"}, ids(record.List(related))); diff != "" {
		t.Fatalf("books mismatch (-want +got):\n%s", diff)
	}

	book := f.model("Book")
	titles, _ := book.Association("titles")
	if err := f.store.ReplaceAssociation(ctx, book, titles, int64(2), []any{"1"}); err != nil {
		t.Fatalf("replace has many: %v", err)
	}
	n, err := f.store.Count(ctx, query.All(f.model("Title")).Where("book_id", 2))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one title on book 2, got %d", n)
	}

	title := f.model("Title")
	single, _ := title.Association("book")
	if err := f.store.ReplaceAssociation(ctx, title, single, int64(1), nil); err == nil {
		t.Fatalf("belongs-to cannot be replaced as a collection")
	}
}

func TestInTxCommitsOrRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authors := f.model("Author")
	books, _ := authors.Association("books")

	err := f.store.InTx(ctx, func(store query.Store) error {
		created, err := store.Insert(ctx, authors, map[string]any{"name": "Carol"})
		if err != nil {
			return err
		}
		return store.(query.AssociationWriter).ReplaceAssociation(ctx, authors, books, created.ID(), []any{"999"})
	})
	if err == nil {
		t.Fatalf("a missing book must fail the join insert")
	}
	if n, _ := f.store.Count(ctx, query.All(authors)); n != 2 {
		t.Fatalf("failed transaction must leave two authors, got %d", n)
	}

	err = f.store.InTx(ctx, func(store query.Store) error {
		created, err := store.Insert(ctx, authors, map[string]any{"name": "Dana"})
		if err != nil {
			return err
		}
		return store.(query.AssociationWriter).ReplaceAssociation(ctx, authors, books, created.ID(), []any{"2"})
	})
	if err != nil {
		t.Fatalf("in tx: %v", err)
	}
	if n, _ := f.store.Count(ctx, query.All(authors)); n != 3 {
		t.Fatalf("committed transaction must add an author, got %d", n)
	}
}
