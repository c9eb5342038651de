// Package action defines bulk actions: operations a repository exposes over a
// selection of records, and the response shape the admin maps to HTTP.
package action

import (
	"context"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/record"
)

// Input holds the values submitted for the action's declared fields, keyed by
// field name.
type Input map[string]string

// Get returns the trimmed value for name.
func (in Input) Get(name string) string {
	if in == nil {
		return ""
	}
	return strings.TrimSpace(in[name])
}

// Action is a bulk operation. Handle receives every record of the selection
// that still exists. A returned error is treated as fatal; expected failures
// are reported through an Error response.
type Action interface {
	Key() string
	Handle(ctx context.Context, records []record.Record, input Input) (Response, error)
}

// Namer overrides the humanised key in buttons and menus.
type Namer interface {
	Name() string
}

// FieldDeclarer lists the inputs the action form asks for.
type FieldDeclarer interface {
	Fields() []field.Field
}

// NameOf returns the display name of a.
func NameOf(a Action) string {
	if n, ok := a.(Namer); ok {
		if name := strings.TrimSpace(n.Name()); name != "" {
			return name
		}
	}
	if a.Key() == "" {
		return ""
	}
	return inflect.Humanize(a.Key())
}

// FieldsOf returns the declared input fields of a, if any.
func FieldsOf(a Action) []field.Field {
	if d, ok := a.(FieldDeclarer); ok {
		return d.Fields()
	}
	return nil
}

// HandlerFunc adapts a function to the Handle signature.
type HandlerFunc func(ctx context.Context, records []record.Record, input Input) (Response, error)

// Func is an Action assembled from a key and a HandlerFunc.
type Func struct {
	key     string
	name    string
	fields  []field.Field
	handler HandlerFunc
}

var (
	_ Action        = Func{}
	_ Namer         = Func{}
	_ FieldDeclarer = Func{}
)

// New returns a Func action.
func New(key string, handler HandlerFunc) Func {
	return Func{key: strings.TrimSpace(key), handler: handler}
}

func (f Func) WithName(name string) Func {
	f.name = name
	return f
}

func (f Func) WithFields(fields ...field.Field) Func {
	f.fields = append([]field.Field(nil), fields...)
	return f
}

func (f Func) Key() string  { return f.key }
func (f Func) Name() string { return f.name }

func (f Func) Fields() []field.Field {
	return append([]field.Field(nil), f.fields...)
}

func (f Func) Handle(ctx context.Context, records []record.Record, input Input) (Response, error) {
	if f.handler == nil {
		return Error("nothing to do"), nil
	}
	return f.handler(ctx, records, input)
}
