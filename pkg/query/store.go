package query

import (
	"context"

	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/record"
)

// Store executes queries and persists records. Find reports a missing record
// with adminerr.NotFoundError.
type Store interface {
	All(ctx context.Context, q Query) ([]record.Record, error)
	Count(ctx context.Context, q Query) (int, error)
	Find(ctx context.Context, m model.Model, id any) (record.Record, error)
	Insert(ctx context.Context, m model.Model, values map[string]any) (record.Record, error)
	Update(ctx context.Context, m model.Model, id any, values map[string]any) (record.Record, error)
	Delete(ctx context.Context, m model.Model, id any) error
}

// AssociationWriter is implemented by stores that can rewrite the members of
// a collection association (has-many foreign keys or join-table rows).
type AssociationWriter interface {
	ReplaceAssociation(ctx context.Context, owner model.Model, assoc model.Association, ownerID any, ids []any) error
}

// Transactor is implemented by stores that can run several writes as one
// unit. fn receives a store bound to the transaction; an error from fn rolls
// every write back.
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}
