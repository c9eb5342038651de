package actions

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// Request names a bulk action execution. Model and Action are untrusted and
// are only resolved through the registry and the repository's declared
// actions.
type Request struct {
	Model  string
	Action string
	IDs    []string
	// Form carries the submitted action inputs, keyed by param key.
	Form url.Values
}

// Outcome is an executed action.
type Outcome struct {
	Repository *repository.Repository
	Action     action.Action
	Selected   int
	Response   action.Response
}

// Run resolves and executes req. Ids that match no record are dropped; the
// action still runs over the rest, even when nothing remains.
func Run(ctx context.Context, reg *repository.Registry, req Request) (Outcome, error) {
	if reg == nil {
		return Outcome{}, adminerr.ConfigurationError{Subject: "actions", Msg: "missing registry"}
	}
	repo, err := reg.Lookup(req.Model)
	if err != nil {
		return Outcome{}, err
	}
	a, err := repo.Action(strings.TrimSpace(req.Action))
	if err != nil {
		return Outcome{}, err
	}

	ids := make([]any, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	records, err := repo.FindMany(ctx, ids)
	if err != nil {
		return Outcome{}, err
	}

	res, err := a.Handle(ctx, records, InputFor(repo, a, req.Form))
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Repository: repo, Action: a, Selected: len(records), Response: res}, nil
}

// InputFor collects the values of the action's declared fields from form.
func InputFor(repo *repository.Repository, a action.Action, form url.Values) action.Input {
	fields := action.FieldsOf(a)
	in := make(action.Input, len(fields))
	for _, f := range fields {
		key := f.ParamKey(repo.Model())
		if values, ok := form[key]; ok && len(values) > 0 {
			in[f.Name()] = values[0]
		}
	}
	return in
}

// Descriptor is the wire form of an action.Response.
type Descriptor struct {
	Status         action.Status    `json:"status"`
	Message        string           `json:"message,omitempty"`
	RedirectPath   string           `json:"redirect_path,omitempty"`
	FileDownload   *action.Download `json:"file_download,omitempty"`
	CustomFragment *string          `json:"custom_fragment,omitempty"`
}

func Describe(res action.Response) Descriptor {
	d := Descriptor{Status: res.Status(), Message: res.Message()}
	if p, ok := res.RedirectPath(); ok {
		d.RedirectPath = p
	}
	if dl, ok := res.FileDownload(); ok {
		d.FileDownload = &dl
	}
	if html, ok := res.CustomFragment(); ok {
		d.CustomFragment = &html
	}
	return d
}
