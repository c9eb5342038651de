package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/record"
)

// preload batch-loads one association for every row.
func (s *Store) preload(ctx context.Context, owner model.Model, rows []*record.Row, name string) error {
	if len(rows) == 0 {
		return nil
	}
	assoc, ok := owner.Association(name)
	if !ok {
		return adminerr.NotFoundError{Resource: "association", Name: owner.ID + "." + name}
	}
	values, err := s.associated(ctx, assoc, rows)
	if err != nil {
		return err
	}
	for _, row := range rows {
		row.SetRelated(name, values[row])
	}
	return nil
}

// associated resolves assoc for every row. Single-valued associations map to
// a record.Record or nil, collections to a non-nil []record.Record.
func (s *Store) associated(ctx context.Context, assoc model.Association, rows []*record.Row) (map[*record.Row]any, error) {
	switch assoc.Kind {
	case model.BelongsToKind:
		if assoc.Polymorphic {
			return s.polymorphic(ctx, assoc, rows)
		}
		target, err := s.target(assoc.Target)
		if err != nil {
			return nil, err
		}
		return s.belongsTo(ctx, target, assoc, rows)
	case model.HasManyKind:
		return s.hasMany(ctx, assoc, rows)
	case model.HasAndBelongsToManyKind:
		return s.habtm(ctx, assoc, rows)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported association kind %q", assoc.Kind)
	}
}

func (s *Store) target(id string) (model.Model, error) {
	if s.models == nil {
		return model.Model{}, errNoModels
	}
	m, ok := s.models.Model(id)
	if !ok {
		return model.Model{}, adminerr.ConfigurationError{Subject: id, Msg: "association target is not defined"}
	}
	return m, nil
}

func (s *Store) belongsTo(ctx context.Context, target model.Model, assoc model.Association, rows []*record.Row) (map[*record.Row]any, error) {
	out := make(map[*record.Row]any, len(rows))
	keys := distinct(rows, func(row *record.Row) any {
		v, _ := row.Attr(assoc.ForeignKey)
		return v
	})
	if len(keys) == 0 {
		for _, row := range rows {
			out[row] = nil
		}
		return out, nil
	}

	related, err := s.index(ctx, query.All(target).WhereIn(target.Key(), keys...))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		fk, _ := row.Attr(assoc.ForeignKey)
		if match, ok := related[record.IDString(fk)]; ok && fk != nil {
			out[row] = record.Record(match)
			continue
		}
		out[row] = nil
	}
	return out, nil
}

// polymorphic groups rows by their type column and loads each group from the
// model named there.
func (s *Store) polymorphic(ctx context.Context, assoc model.Association, rows []*record.Row) (map[*record.Row]any, error) {
	out := make(map[*record.Row]any, len(rows))
	groups := make(map[string][]*record.Row)
	var order []string
	for _, row := range rows {
		raw, _ := row.Attr(assoc.TypeKey)
		typeName := record.IDString(raw)
		if typeName == "" {
			out[row] = nil
			continue
		}
		if _, seen := groups[typeName]; !seen {
			order = append(order, typeName)
		}
		groups[typeName] = append(groups[typeName], row)
	}

	for _, typeName := range order {
		target, err := s.target(typeName)
		if err != nil {
			return nil, err
		}
		values, err := s.belongsTo(ctx, target, assoc, groups[typeName])
		if err != nil {
			return nil, err
		}
		for row, value := range values {
			out[row] = value
		}
	}
	return out, nil
}

func (s *Store) hasMany(ctx context.Context, assoc model.Association, rows []*record.Row) (map[*record.Row]any, error) {
	target, err := s.target(assoc.Target)
	if err != nil {
		return nil, err
	}

	ids := distinct(rows, func(row *record.Row) any { return row.ID() })
	grouped := make(map[string][]record.Record)
	if len(ids) > 0 {
		related, err := s.selectRows(ctx, target, query.All(target).
			WhereIn(assoc.ForeignKey, ids...).
			Order(target.Key(), query.Asc).
			Selector(s.dialect))
		if err != nil {
			return nil, err
		}
		for _, rel := range related {
			fk, _ := rel.Attr(assoc.ForeignKey)
			key := record.IDString(fk)
			grouped[key] = append(grouped[key], rel)
		}
	}

	out := make(map[*record.Row]any, len(rows))
	for _, row := range rows {
		list := grouped[record.IDOf(row)]
		if list == nil {
			list = []record.Record{}
		}
		out[row] = list
	}
	return out, nil
}

func (s *Store) habtm(ctx context.Context, assoc model.Association, rows []*record.Row) (map[*record.Row]any, error) {
	target, err := s.target(assoc.Target)
	if err != nil {
		return nil, err
	}

	out := make(map[*record.Row]any, len(rows))
	ids := distinct(rows, func(row *record.Row) any { return row.ID() })
	if len(ids) == 0 {
		for _, row := range rows {
			out[row] = []record.Record{}
		}
		return out, nil
	}

	statement, args := sql.Dialect(s.dialect).
		Select(assoc.ForeignKey, assoc.AssociationForeignKey).
		From(sql.Table(assoc.JoinTable)).
		Where(sql.In(assoc.ForeignKey, ids...)).
		OrderBy(assoc.AssociationForeignKey).
		Query()
	s.trace(statement, args)

	links, err := s.conn.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query %s: %w", assoc.JoinTable, err)
	}
	type pair struct{ owner, target string }
	var pairs []pair
	var targetIDs []any
	seen := make(map[string]struct{})
	for links.Next() {
		var ownerID, targetID any
		if err := links.Scan(&ownerID, &targetID); err != nil {
			links.Close()
			return nil, fmt.Errorf("sqlstore: scan %s: %w", assoc.JoinTable, err)
		}
		p := pair{owner: record.IDString(normalizeValue(ownerID)), target: record.IDString(normalizeValue(targetID))}
		pairs = append(pairs, p)
		if _, ok := seen[p.target]; !ok {
			seen[p.target] = struct{}{}
			targetIDs = append(targetIDs, normalizeValue(targetID))
		}
	}
	if err := links.Err(); err != nil {
		links.Close()
		return nil, fmt.Errorf("sqlstore: rows %s: %w", assoc.JoinTable, err)
	}
	links.Close()

	related := map[string]*record.Row{}
	if len(targetIDs) > 0 {
		related, err = s.index(ctx, query.All(target).WhereIn(target.Key(), targetIDs...))
		if err != nil {
			return nil, err
		}
	}

	grouped := make(map[string][]record.Record)
	for _, p := range pairs {
		if rel, ok := related[p.target]; ok {
			grouped[p.owner] = append(grouped[p.owner], rel)
		}
	}
	for _, row := range rows {
		list := grouped[record.IDOf(row)]
		if list == nil {
			list = []record.Record{}
		}
		out[row] = list
	}
	return out, nil
}

// ReplaceAssociation rewrites the members of a has-many or
// has-and-belongs-to-many association inside a transaction.
func (s *Store) ReplaceAssociation(ctx context.Context, owner model.Model, assoc model.Association, ownerID any, ids []any) error {
	return s.InTx(ctx, func(store query.Store) error {
		tx := store.(*Store)
		if err := tx.replace(ctx, assoc, ownerID, ids); err != nil {
			return fmt.Errorf("sqlstore: replace %s.%s: %w", owner.ID, assoc.Name, err)
		}
		return nil
	})
}

func (s *Store) replace(ctx context.Context, assoc model.Association, ownerID any, ids []any) error {
	exec := func(statement string, args []any) error {
		s.trace(statement, args)
		_, err := s.conn.ExecContext(ctx, statement, args...)
		return err
	}

	switch assoc.Kind {
	case model.HasManyKind:
		target, err := s.target(assoc.Target)
		if err != nil {
			return err
		}
		statement, args := sql.Dialect(s.dialect).Update(target.TableName()).
			Set(assoc.ForeignKey, nil).
			Where(sql.EQ(assoc.ForeignKey, ownerID)).
			Query()
		if err := exec(statement, args); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		statement, args = sql.Dialect(s.dialect).Update(target.TableName()).
			Set(assoc.ForeignKey, ownerID).
			Where(sql.In(target.Key(), ids...)).
			Query()
		return exec(statement, args)
	case model.HasAndBelongsToManyKind:
		statement, args := sql.Dialect(s.dialect).Delete(assoc.JoinTable).
			Where(sql.EQ(assoc.ForeignKey, ownerID)).
			Query()
		if err := exec(statement, args); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		insert := sql.Dialect(s.dialect).Insert(assoc.JoinTable).Columns(assoc.ForeignKey, assoc.AssociationForeignKey)
		for _, id := range ids {
			insert.Values(ownerID, id)
		}
		statement, args = insert.Query()
		return exec(statement, args)
	default:
		return fmt.Errorf("association kind %s holds a single key", assoc.Kind)
	}
}

// index runs q and keys the rows by primary key string.
func (s *Store) index(ctx context.Context, q query.Query) (map[string]*record.Row, error) {
	rows, err := s.selectRows(ctx, q.Model(), q.Selector(s.dialect))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*record.Row, len(rows))
	for _, row := range rows {
		out[record.IDOf(row)] = row
	}
	return out, nil
}

func distinct(rows []*record.Row, value func(*record.Row) any) []any {
	seen := make(map[string]struct{}, len(rows))
	var out []any
	for _, row := range rows {
		v := value(row)
		if v == nil {
			continue
		}
		key := record.IDString(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
