package query

import (
	"fmt"

	"entgo.io/ent/dialect/sql"

	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/record"
)

// ForAssociation returns the query over target selecting the records that
// owner is associated with through assoc. A nil or unsaved owner yields a
// query that matches nothing.
func ForAssociation(assoc model.Association, target model.Model, owner record.Record) (Query, error) {
	q := All(target)
	if owner == nil || owner.ID() == nil {
		return q.Filter(func(s *sql.Selector) { s.Where(matchNothing()) }), nil
	}

	switch assoc.Kind {
	case model.BelongsToKind:
		fk, _ := owner.Attr(assoc.ForeignKey)
		if fk == nil {
			return q.Filter(func(s *sql.Selector) { s.Where(matchNothing()) }), nil
		}
		return q.Where(target.Key(), fk), nil
	case model.HasManyKind:
		return q.Where(assoc.ForeignKey, owner.ID()), nil
	case model.HasAndBelongsToManyKind:
		ownerID := owner.ID()
		return q.Filter(func(s *sql.Selector) {
			key := s.C(target.Key())
			s.Where(sql.P(func(b *sql.Builder) {
				b.WriteString(key).WriteString(" IN (SELECT ").Ident(assoc.AssociationForeignKey).
					WriteString(" FROM ").Ident(assoc.JoinTable).
					WriteString(" WHERE ").Ident(assoc.ForeignKey).WriteString(" = ").Arg(ownerID).
					WriteString(")")
			}))
		}), nil
	default:
		return q, fmt.Errorf("query: unsupported association kind %q", assoc.Kind)
	}
}
