// Package query holds the immutable query value repositories compose and the
// Store collaborator that executes it.
//
// A Query never executes anything itself. Every method returns a copy, so a
// base query can be shared and extended from several call sites without any
// of them observing the others' changes.
package query

import (
	"slices"
	"strings"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/goliatone/go-admingen/pkg/model"
)

// Modifier mutates a selector: predicates, joins, group-by clauses.
type Modifier func(*sql.Selector)

type searchClause struct {
	columns []string
	term    string
}

// Query describes a select over one model.
type Query struct {
	model    model.Model
	filters  []Modifier
	searches []searchClause
	orders   []Modifier
	includes []string
	limit    int
	offset   int
}

// All returns the query for every record of m.
func All(m model.Model) Query {
	return Query{model: m}
}

func (q Query) Model() model.Model { return q.model }

// Filter appends an arbitrary modifier. Predicates added through Filter are
// ANDed with previous ones.
func (q Query) Filter(fn Modifier) Query {
	if fn == nil {
		return q
	}
	q.filters = append(slices.Clip(q.filters), fn)
	return q
}

// Where adds an equality predicate on a column of the model table.
func (q Query) Where(column string, value any) Query {
	return q.Filter(func(s *sql.Selector) {
		s.Where(sql.EQ(s.C(column), value))
	})
}

// WhereIn adds an IN predicate. An empty value list matches nothing.
func (q Query) WhereIn(column string, values ...any) Query {
	if len(values) == 0 {
		return q.Filter(func(s *sql.Selector) { s.Where(matchNothing()) })
	}
	values = slices.Clone(values)
	return q.Filter(func(s *sql.Selector) {
		s.Where(sql.In(s.C(column), values...))
	})
}

// Search ANDs a case-insensitive substring match over columns. Any column may
// match. A blank term or an empty column list leaves the query unchanged.
func (q Query) Search(columns []string, term string) Query {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	q.searches = append(slices.Clip(q.searches), searchClause{columns: slices.Clone(columns), term: term})
	return q
}

// Order appends an ORDER BY on a column of the model table.
func (q Query) Order(column string, dir Direction) Query {
	return q.OrderBy(func(s *sql.Selector) {
		if dir == Desc {
			s.OrderBy(sql.Desc(s.C(column)))
			return
		}
		s.OrderBy(s.C(column))
	})
}

// OrderBy appends a custom ordering modifier, typically one that joins and
// groups before ordering by an aggregate.
func (q Query) OrderBy(fn Modifier) Query {
	if fn == nil {
		return q
	}
	q.orders = append(slices.Clip(q.orders), fn)
	return q
}

// Reorder replaces every previous ordering.
func (q Query) Reorder(column string, dir Direction) Query {
	return q.Unordered().Order(column, dir)
}

// Unordered drops every ordering.
func (q Query) Unordered() Query {
	q.orders = nil
	return q
}

// Ordered reports whether any ordering has been applied.
func (q Query) Ordered() bool { return len(q.orders) > 0 }

// Includes marks associations for eager loading.
func (q Query) Includes(names ...string) Query {
	out := slices.Clone(q.includes)
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	q.includes = out
	return q
}

// IncludeNames returns the eager-load list.
func (q Query) IncludeNames() []string { return slices.Clone(q.includes) }

func (q Query) Limit(n int) Query {
	if n < 0 {
		n = 0
	}
	q.limit = n
	return q
}

func (q Query) Offset(n int) Query {
	if n < 0 {
		n = 0
	}
	q.offset = n
	return q
}

func (q Query) LimitValue() int  { return q.limit }
func (q Query) OffsetValue() int { return q.offset }

// Selector builds the SELECT for dialectName.
func (q Query) Selector(dialectName string) *sql.Selector {
	t := sql.Table(q.model.TableName())
	columns := make([]string, 0, len(q.model.Columns))
	for _, column := range q.model.Columns {
		columns = append(columns, t.C(column))
	}
	s := sql.Dialect(dialectName).Select(columns...).From(t)
	q.applyFilters(s, dialectName)
	for _, fn := range q.orders {
		fn(s)
	}
	if q.limit > 0 {
		s.Limit(q.limit)
		if q.offset > 0 {
			s.Offset(q.offset)
		}
	}
	return s
}

// CountSelector builds a COUNT over the filtered rows. Ordering, limit, and
// offset are ignored.
func (q Query) CountSelector(dialectName string) *sql.Selector {
	s := sql.Dialect(dialectName).Select(sql.Count("*")).From(sql.Table(q.model.TableName()))
	q.applyFilters(s, dialectName)
	return s
}

func (q Query) applyFilters(s *sql.Selector, dialectName string) {
	for _, fn := range q.filters {
		fn(s)
	}
	for _, clause := range q.searches {
		s.Where(searchPredicate(s, dialectName, clause))
	}
}

// likeEscape is the LIKE escape character. Backslash is avoided because
// MySQL and SQLite read it differently inside string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

func searchPredicate(s *sql.Selector, dialectName string, clause searchClause) *sql.Predicate {
	castType := "TEXT"
	if dialectName == dialect.MySQL {
		castType = "CHAR"
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(clause.term)) + "%"

	preds := make([]*sql.Predicate, 0, len(clause.columns))
	for _, column := range clause.columns {
		qualified := s.C(column)
		preds = append(preds, sql.P(func(b *sql.Builder) {
			b.WriteString("LOWER(CAST(").WriteString(qualified).WriteString(" AS " + castType + ")) LIKE ").Arg(pattern).WriteString(" ESCAPE '" + likeEscape + "'")
		}))
	}
	return sql.Or(preds...)
}

func matchNothing() *sql.Predicate {
	return sql.P(func(b *sql.Builder) {
		b.WriteString("1 = 0")
	})
}
