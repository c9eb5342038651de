package query_test

import (
	"net/url"
	"strings"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

var books = model.Define("Book", "id", "original_title", "active")

func build(t *testing.T, q query.Query, dialectName string) (string, []any) {
	t.Helper()
	return q.Selector(dialectName).Query()
}

func assertSQL(t *testing.T, statement string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(statement, fragment) {
			t.Fatalf("expected %q in %s", fragment, statement)
		}
	}
}

func TestQueryIsImmutable(t *testing.T) {
	base := query.All(books).Where("active", 1)
	limited := base.Limit(5).Order("original_title", query.Desc)
	searched := base.Search([]string{"original_title"}, "dune")

	if base.LimitValue() != 0 || base.Ordered() {
		t.Fatalf("base query changed: limit %d ordered %v", base.LimitValue(), base.Ordered())
	}
	if !limited.Ordered() || limited.LimitValue() != 5 {
		t.Fatalf("derived query lost its clauses")
	}

	statement, args := build(t, searched, dialect.SQLite)
	assertSQL(t, statement, "LOWER(CAST(", "AS TEXT)) LIKE ?")
	if diff := cmp.Diff([]any{1, "%dune%"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if statement, _ := build(t, base, dialect.SQLite); strings.Contains(statement, "LIKE") {
		t.Fatalf("search leaked into the base query: %s", statement)
	}
}

func TestSearchCastsPerDialect(t *testing.T) {
	q := query.All(books).Search([]string{"id", "original_title"}, "  Left ")
	statement, args := build(t, q, dialect.MySQL)
	assertSQL(t, statement, "AS CHAR)) LIKE ?", " OR ")
	if diff := cmp.Diff([]any{"%left%", "%left%"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if blank := query.All(books).Search([]string{"id"}, "  "); blank.Ordered() {
		t.Fatalf("blank search must not change anything")
	}
}

func TestBooleanWhereRendersBareColumn(t *testing.T) {
	statement, args := build(t, query.All(books).Where("active", true), dialect.SQLite)
	assertSQL(t, statement, "WHERE `books`.`active`")
	if len(args) != 0 {
		t.Fatalf("a true comparison needs no argument, got %v", args)
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	statement, args := build(t, query.All(books).Search([]string{"original_title"}, "50%_Off!"), dialect.SQLite)
	assertSQL(t, statement, "LIKE ? ESCAPE '!'")
	if diff := cmp.Diff([]any{"%50!%!_off!!%"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestLimitOffsetAndCount(t *testing.T) {
	q := query.All(books).Order("id", query.Asc).Limit(10).Offset(20)
	statement, _ := build(t, q, dialect.SQLite)
	assertSQL(t, statement, "ORDER BY", "LIMIT 10", "OFFSET 20")

	count, _ := q.CountSelector(dialect.SQLite).Query()
	assertSQL(t, count, "COUNT(*)")
	for _, dropped := range []string{"ORDER BY", "LIMIT", "OFFSET"} {
		if strings.Contains(count, dropped) {
			t.Fatalf("count must ignore %s: %s", dropped, count)
		}
	}

	if got := query.All(books).Limit(-3).Offset(-1); got.LimitValue() != 0 || got.OffsetValue() != 0 {
		t.Fatalf("negative limits must clamp to zero")
	}
}

func TestWhereInEmptyMatchesNothing(t *testing.T) {
	statement, _ := build(t, query.All(books).WhereIn("id"), dialect.SQLite)
	assertSQL(t, statement, "1 = 0")

	statement, args := build(t, query.All(books).WhereIn("id", 1, 2), dialect.SQLite)
	assertSQL(t, statement, "IN (?, ?)")
	if len(args) != 2 {
		t.Fatalf("expected two args, got %v", args)
	}
}

func TestIncludesAreDeduplicated(t *testing.T) {
	q := query.All(books).Includes("titles", " titles ", "", "authors")
	if diff := cmp.Diff([]string{"titles", "authors"}, q.IncludeNames()); diff != "" {
		t.Fatalf("includes mismatch (-want +got):\n%s", diff)
	}
}

func TestReorderReplacesOrdering(t *testing.T) {
	q := query.All(books).Order("active", query.Desc).Reorder("original_title", query.Asc)
	statement, _ := build(t, q, dialect.SQLite)
	if strings.Contains(statement, "`active` DESC") {
		t.Fatalf("previous ordering must be dropped: %s", statement)
	}
	if query.All(books).Order("id", query.Asc).Unordered().Ordered() {
		t.Fatalf("unordered query reports an ordering")
	}
}

func TestSortOrderParams(t *testing.T) {
	if _, ok := query.SortOrderFromParams(url.Values{}); ok {
		t.Fatalf("missing sort[by] must not produce an order")
	}
	order, ok := query.SortOrderFromParams(url.Values{
		query.SortByParam:        {" name "},
		query.SortDirectionParam: {"DESC"},
	})
	if !ok || order.Name() != "name" || !order.Descending() {
		t.Fatalf("unexpected order: %+v", order)
	}
	if got := query.NewSortOrder("name", "sideways").Direction(); got != query.Asc {
		t.Fatalf("unknown direction must be asc, got %s", got)
	}

	toggled := order.Toggled("name")
	if !toggled.Ascending() {
		t.Fatalf("toggling the current column flips the direction")
	}
	if other := order.Toggled("born_on"); other.Name() != "born_on" || !other.Ascending() {
		t.Fatalf("a new column starts ascending: %+v", other)
	}

	want := url.Values{query.SortByParam: {"name"}, query.SortDirectionParam: {"asc"}}
	if diff := cmp.Diff(want, toggled.Params()); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if len(query.SortOrder{}.Params()) != 0 {
		t.Fatalf("zero order encodes nothing")
	}
}

func TestForAssociation(t *testing.T) {
	titles := model.Define("Title", "id", "book_id", "locale", "title")
	authors := model.Define("Author", "id", "name")

	owner := record.NewRow("Title", "id", map[string]any{"id": int64(3), "book_id": int64(2)})
	q, err := query.ForAssociation(model.BelongsTo("book", "Book").WithForeignKey("book_id"), books, owner)
	if err != nil {
		t.Fatalf("belongs to: %v", err)
	}
	_, args := build(t, q, dialect.SQLite)
	if diff := cmp.Diff([]any{int64(2)}, args); diff != "" {
		t.Fatalf("belongs to args (-want +got):\n%s", diff)
	}

	book := record.NewRow("Book", "id", map[string]any{"id": int64(1)})
	q, err = query.ForAssociation(model.HasMany("titles", "Title").WithForeignKey("book_id"), titles, book)
	if err != nil {
		t.Fatalf("has many: %v", err)
	}
	statement, args := build(t, q, dialect.SQLite)
	assertSQL(t, statement, "`book_id` = ?")
	if diff := cmp.Diff([]any{int64(1)}, args); diff != "" {
		t.Fatalf("has many args (-want +got):\n%s", diff)
	}

	habtm := model.HasAndBelongsToMany("authors", "Author").WithForeignKey("book_id").WithJoinTable("authors_books", "author_id")
	q, err = query.ForAssociation(habtm, authors, book)
	if err != nil {
		t.Fatalf("habtm: %v", err)
	}
	statement, _ = build(t, q, dialect.SQLite)
	assertSQL(t, statement, "SELECT `author_id` FROM `authors_books` WHERE `book_id` = ?")

	unsaved := record.NewRow("Book", "id", map[string]any{"original_title": "Draft"})
	q, err = query.ForAssociation(model.HasMany("titles", "Title").WithForeignKey("book_id"), titles, unsaved)
	if err != nil {
		t.Fatalf("unsaved owner: %v", err)
	}
	statement, _ = build(t, q, dialect.SQLite)
	assertSQL(t, statement, "1 = 0")

	if _, err := query.ForAssociation(model.Association{Name: "odd", Kind: "has_one"}, titles, book); err == nil {
		t.Fatalf("unsupported kind must fail")
	}
}
