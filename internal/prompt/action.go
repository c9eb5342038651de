package prompt

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-admingen/components/actions"
	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// ErrDeclined reports that the user did not confirm the action.
var ErrDeclined = fmt.Errorf("%w: action not confirmed", ErrAborted)

// ActionRequest asks which action of repo to run over ids, collects the
// action's inputs, and confirms. An empty key asks the user to choose; a key
// repo does not declare is a not found error.
func ActionRequest(ctx context.Context, d Driver, repo *repository.Repository, key string, ids []string) (actions.Request, error) {
	declared := repo.Actions()
	if len(declared) == 0 {
		return actions.Request{}, adminerr.NotFoundError{Resource: "action", Name: repo.ID()}
	}

	var chosen action.Action
	if key = strings.TrimSpace(key); key != "" {
		a, err := repo.Action(key)
		if err != nil {
			return actions.Request{}, err
		}
		chosen = a
	} else {
		names := make([]string, len(declared))
		for i, a := range declared {
			names[i] = action.NameOf(a)
		}
		idx, err := d.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("Action for %s", repo.PluralName()),
			Options: names,
		})
		if err != nil {
			return actions.Request{}, err
		}
		if idx < 0 || idx >= len(declared) {
			return actions.Request{}, adminerr.NotFoundError{Resource: "action", Name: fmt.Sprint(idx)}
		}
		chosen = declared[idx]
	}

	form := url.Values{}
	for _, f := range action.FieldsOf(chosen) {
		value, err := d.Input(ctx, InputConfig{Message: repo.Label(f), Help: repo.Hint(f)})
		if err != nil {
			return actions.Request{}, err
		}
		form.Set(f.ParamKey(repo.Model()), value)
	}

	ok, err := d.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("%s %d %s?", action.NameOf(chosen), len(ids), repo.PluralName()),
	})
	if err != nil {
		return actions.Request{}, err
	}
	if !ok {
		return actions.Request{}, ErrDeclined
	}
	return actions.Request{Model: repo.ID(), Action: chosen.Key(), IDs: ids, Form: form}, nil
}
