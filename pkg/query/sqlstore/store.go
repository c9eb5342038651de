// Package sqlstore executes query.Query values against a database/sql
// connection, using ent's dialect-aware SQL builder for every statement.
package sqlstore

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"sort"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// conn is satisfied by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, statement string, args ...any) (stdsql.Result, error)
	QueryContext(ctx context.Context, statement string, args ...any) (*stdsql.Rows, error)
	QueryRowContext(ctx context.Context, statement string, args ...any) *stdsql.Row
}

// Store implements query.Store, query.AssociationWriter, and query.Transactor.
type Store struct {
	db      *stdsql.DB
	tx      *stdsql.Tx
	conn    conn
	dialect string
	models  model.Resolver
	logger  *zap.Logger
}

var (
	_ query.Store             = (*Store)(nil)
	_ query.AssociationWriter = (*Store)(nil)
	_ query.Transactor        = (*Store)(nil)
)

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDialect overrides the SQL dialect (dialect.SQLite by default).
func WithDialect(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.dialect = name
		}
	}
}

// New wraps an open database. models resolves association targets.
func New(db *stdsql.DB, models model.Resolver, opts ...Option) *Store {
	s := &Store{
		db:      db,
		conn:    db,
		dialect: dialect.SQLite,
		models:  models,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open connects with driverName ("sqlite" or "mysql") and picks the matching
// dialect. SQLite connections are limited to one to avoid lock contention.
func Open(driverName, dsn string, models model.Resolver, opts ...Option) (*Store, error) {
	db, err := stdsql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName, err)
	}

	d, err := DialectFor(driverName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if d == dialect.SQLite {
		db.SetMaxOpenConns(1)
	}
	return New(db, models, append([]Option{WithDialect(d)}, opts...)...), nil
}

// DialectFor maps a database/sql driver name onto an ent dialect.
func DialectFor(driverName string) (string, error) {
	switch driverName {
	case "sqlite", "sqlite3":
		return dialect.SQLite, nil
	case "mysql":
		return dialect.MySQL, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported driver %q", driverName)
	}
}

func (s *Store) DB() *stdsql.DB  { return s.db }
func (s *Store) Dialect() string { return s.dialect }
func (s *Store) Close() error    { return s.db.Close() }

// InTx runs fn against a store bound to a single transaction, committing
// when fn succeeds. Records read inside fn load associations through the
// transaction and must not be used after InTx returns. Nested calls join the
// outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(query.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	bound := *s
	bound.tx = tx
	bound.conn = tx
	if err := fn(&bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

// All runs q and eager-loads its includes.
func (s *Store) All(ctx context.Context, q query.Query) ([]record.Record, error) {
	rows, err := s.selectRows(ctx, q.Model(), q.Selector(s.dialect))
	if err != nil {
		return nil, err
	}
	for _, name := range q.IncludeNames() {
		if err := s.preload(ctx, q.Model(), rows, name); err != nil {
			return nil, err
		}
	}

	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, q query.Query) (int, error) {
	statement, args := q.CountSelector(s.dialect).Query()
	s.trace(statement, args)

	var n int
	if err := s.conn.QueryRowContext(ctx, statement, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlstore: count %s: %w", q.Model().ID, err)
	}
	return n, nil
}

func (s *Store) Find(ctx context.Context, m model.Model, id any) (record.Record, error) {
	rows, err := s.selectRows(ctx, m, query.All(m).Where(m.Key(), id).Limit(1).Selector(s.dialect))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, adminerr.NotFoundError{Resource: m.ID, Name: record.IDString(id)}
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, m model.Model, values map[string]any) (record.Record, error) {
	columns, args := s.columnValues(m, values)
	builder := sql.Dialect(s.dialect).Insert(m.TableName()).Columns(columns...).Values(args...)
	statement, params := builder.Query()
	s.trace(statement, params)

	res, err := s.conn.ExecContext(ctx, statement, params...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: insert %s: %w", m.ID, err)
	}

	id, ok := values[m.Key()]
	if !ok || id == nil {
		lastID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("sqlstore: insert %s: last id: %w", m.ID, err)
		}
		id = lastID
	}
	return s.Find(ctx, m, id)
}

func (s *Store) Update(ctx context.Context, m model.Model, id any, values map[string]any) (record.Record, error) {
	columns, args := s.columnValues(m, values)
	builder := sql.Dialect(s.dialect).Update(m.TableName())
	updates := 0
	for i, column := range columns {
		if column == m.Key() {
			continue
		}
		builder.Set(column, args[i])
		updates++
	}
	if updates > 0 {
		statement, params := builder.Where(sql.EQ(m.Key(), id)).Query()
		s.trace(statement, params)

		if _, err := s.conn.ExecContext(ctx, statement, params...); err != nil {
			return nil, fmt.Errorf("sqlstore: update %s: %w", m.ID, err)
		}
	}
	return s.Find(ctx, m, id)
}

func (s *Store) Delete(ctx context.Context, m model.Model, id any) error {
	statement, params := sql.Dialect(s.dialect).Delete(m.TableName()).Where(sql.EQ(m.Key(), id)).Query()
	s.trace(statement, params)

	res, err := s.conn.ExecContext(ctx, statement, params...)
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return adminerr.NotFoundError{Resource: m.ID, Name: record.IDString(id)}
	}
	return nil
}

// Exec runs a raw statement. It exists for schema setup and seeds.
func (s *Store) Exec(ctx context.Context, statement string, args ...any) error {
	s.trace(statement, args)
	if _, err := s.conn.ExecContext(ctx, statement, args...); err != nil {
		return fmt.Errorf("sqlstore: exec: %w", err)
	}
	return nil
}

// columnValues keeps the model's own columns, in a stable order.
func (s *Store) columnValues(m model.Model, values map[string]any) ([]string, []any) {
	columns := make([]string, 0, len(values))
	for column := range values {
		if m.HasColumn(column) {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)

	args := make([]any, 0, len(columns))
	for _, column := range columns {
		args = append(args, values[column])
	}
	return columns, args
}

func (s *Store) selectRows(ctx context.Context, m model.Model, selector *sql.Selector) ([]*record.Row, error) {
	statement, args := selector.Query()
	s.trace(statement, args)

	rows, err := s.conn.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query %s: %w", m.ID, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: columns %s: %w", m.ID, err)
	}

	var out []*record.Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("sqlstore: scan %s: %w", m.ID, err)
		}

		attrs := make(map[string]any, len(columns))
		for i, column := range columns {
			attrs[column] = normalizeValue(values[i])
		}
		out = append(out, s.newRow(m, attrs))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: rows %s: %w", m.ID, err)
	}
	return out, nil
}

func (s *Store) newRow(m model.Model, attrs map[string]any) *record.Row {
	return record.NewRow(m.ID, m.Key(), attrs).WithLoader(s.loadRelated)
}

func (s *Store) loadRelated(ctx context.Context, row *record.Row, name string) (any, error) {
	if s.models == nil {
		return nil, errNoModels
	}
	m, ok := s.models.Model(row.Model())
	if !ok {
		return nil, adminerr.ConfigurationError{Subject: row.Model(), Msg: "model is not defined"}
	}
	assoc, ok := m.Association(name)
	if !ok {
		return nil, adminerr.NotFoundError{Resource: "association", Name: m.ID + "." + name}
	}
	values, err := s.associated(ctx, assoc, []*record.Row{row})
	if err != nil {
		return nil, err
	}
	return values[row], nil
}

func (s *Store) trace(statement string, args []any) {
	s.logger.Debug("sql", zap.String("statement", statement), zap.Int("args", len(args)))
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

var errNoModels = errors.New("sqlstore: no model resolver configured")
