package picker

import (
	"context"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// Request names the picker being served. All strings are untrusted and are
// only resolved through the registry and the owner's declared fields.
type Request struct {
	Model    string
	Field    string
	RecordID string
	Query    string
	Limit    int
	Multiple bool
}

// Candidate is one selectable target record.
type Candidate struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Result is a resolved picker request.
type Result struct {
	Field      repository.BoundField
	Target     *repository.Repository
	Multiple   bool
	Candidates []Candidate
}

// Resolve finds the candidates of a picker request.
//
// Unknown models, fields, and records are NotFound errors. A field that is
// not an association, an association served by the wrong endpoint, and a
// polymorphic association with no current value are configuration errors.
func Resolve(ctx context.Context, reg *repository.Registry, req Request) (Result, error) {
	if reg == nil {
		return Result{}, adminerr.ConfigurationError{Subject: "picker", Msg: "missing registry"}
	}
	owner, err := reg.Lookup(req.Model)
	if err != nil {
		return Result{}, err
	}
	bound, err := owner.Bind(req.Field)
	if err != nil {
		return Result{}, err
	}
	if _, err := bound.Association(); err != nil {
		return Result{}, err
	}
	if many := bound.Field().Many(); many != req.Multiple {
		msg := "collection association requires the multiple picker"
		if !many {
			msg = "single association requires the single picker"
		}
		return Result{}, adminerr.ConfigurationError{Subject: owner.ID() + "." + bound.Name(), Msg: msg}
	}

	var rec record.Record
	if req.RecordID != "" {
		if rec, err = owner.Find(ctx, req.RecordID); err != nil {
			return Result{}, err
		}
	}

	target, err := bound.AssociatedRepository(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	if target == nil {
		return Result{}, adminerr.ConfigurationError{
			Subject: owner.ID() + "." + bound.Name(),
			Msg:     "polymorphic association has no value to choose from",
		}
	}

	selectedIDs, err := bound.SelectedIDs(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}

	q := bound.Collection(target, req.Query)
	if req.Limit > 0 {
		q = q.Limit(req.Limit)
	}
	records, err := target.Records(ctx, q)
	if err != nil {
		return Result{}, err
	}

	candidates := make([]Candidate, 0, len(records))
	for _, r := range records {
		id := record.IDOf(r)
		_, isSelected := selected[id]
		candidates = append(candidates, Candidate{
			ID:       id,
			Label:    target.Title(r),
			Selected: isSelected,
		})
	}
	return Result{
		Field:      bound,
		Target:     target,
		Multiple:   req.Multiple,
		Candidates: candidates,
	}, nil
}
