package openapi

import (
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-admingen/pkg/action"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/query"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// Route paths served under a model's index path, shared with the server.
const (
	DeleteSuffix = "/delete"
	IDParam      = "id"
)

// Options configures Describe.
type Options struct {
	Title   string
	Version string
}

type Option func(*Options)

func WithTitle(title string) Option {
	return func(o *Options) {
		if title = strings.TrimSpace(title); title != "" {
			o.Title = title
		}
	}
}

func WithVersion(version string) Option {
	return func(o *Options) {
		if version = strings.TrimSpace(version); version != "" {
			o.Version = version
		}
	}
}

const (
	htmlType = "text/html"
	jsonType = "application/json"
	formType = "application/x-www-form-urlencoded"
)

// Describe documents every registered model of reg.
func Describe(reg *repository.Registry, opts ...Option) (Document, error) {
	o := Options{Title: "Admin", Version: "1.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if reg == nil {
		return Document{}, adminerr.ConfigurationError{Subject: "openapi", Msg: "registry is required"}
	}

	option := component("PickerOption", pickerOptionSchema())
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: o.Title, Version: o.Version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	d := describer{spec: spec}
	d.add(option)
	d.add(component("PickerResponse", openapi3.NewObjectSchema().
		WithPropertyRef("data", openapi3.NewArraySchema().WithItems(option.Value).NewRef()).
		WithRequired([]string{"data"})))
	d.add(component("ActionResult", actionResultSchema()))

	ids := reg.Models()
	for _, id := range ids {
		repo, err := reg.For(id)
		if err != nil {
			return Document{}, err
		}
		d.model(repo)
	}
	d.picker(reg.Routes(), ids)
	return Document{spec: spec}, nil
}

type describer struct {
	spec *openapi3.T
}

// component is a reference to a named schema. The value travels with the
// reference so the document validates without a loader pass.
func component(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, s)
}

func (d describer) add(ref *openapi3.SchemaRef) {
	name := strings.TrimPrefix(ref.Ref, "#/components/schemas/")
	d.spec.Components.Schemas[name] = ref.Value.NewRef()
}

func (d describer) ref(name string) *openapi3.SchemaRef {
	s := d.spec.Components.Schemas[name]
	if s == nil {
		return nil
	}
	return component(name, s.Value)
}

func (d describer) model(repo *repository.Repository) {
	spec := d.spec
	id := repo.ID()
	tag := repo.PluralName()
	index := repo.PathFor(repository.RouteIndex, nil)
	member := repo.PathFor(repository.RouteShow, map[string]string{"id": "{" + IDParam + "}"})
	formRef := component(id+"Form", formSchema(repo))
	d.add(formRef)

	spec.AddOperation(index, http.MethodGet, page(tag, "list"+id, "List "+tag, indexParameters()...))
	spec.AddOperation(repo.PathFor(repository.RouteNew, nil), http.MethodGet, page(tag, "new"+id, "New "+repo.SingularName()))
	spec.AddOperation(index, http.MethodPost, submit(tag, "create"+id, "Create "+repo.SingularName(), formRef))

	idParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter(IDParam).WithSchema(openapi3.NewStringSchema())}
	spec.AddOperation(member, http.MethodGet, page(tag, "show"+id, "Show "+repo.SingularName(), idParam))
	spec.AddOperation(repo.PathFor(repository.RouteEdit, map[string]string{"id": "{" + IDParam + "}"}), http.MethodGet,
		page(tag, "edit"+id, "Edit "+repo.SingularName(), idParam))
	update := submit(tag, "update"+id, "Update "+repo.SingularName(), formRef)
	update.Parameters = openapi3.Parameters{idParam}
	spec.AddOperation(member, http.MethodPost, update)

	del := &openapi3.Operation{
		Tags:        []string{tag},
		OperationID: "delete" + id,
		Summary:     "Delete " + repo.SingularName(),
		Parameters:  openapi3.Parameters{idParam},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusSeeOther, redirect()),
			openapi3.WithStatus(http.StatusNotFound, plain("Record not found")),
		),
	}
	spec.AddOperation(member+DeleteSuffix, http.MethodPost, del)

	if actions := repo.Actions(); len(actions) > 0 {
		spec.AddOperation(repo.PathFor(repository.RouteActions, nil), http.MethodPost, d.action(repo, actions))
	}
}

func indexParameters() []*openapi3.ParameterRef {
	params := []*openapi3.Parameter{
		openapi3.NewQueryParameter("page").WithSchema(openapi3.NewIntegerSchema().WithMin(1)),
		openapi3.NewQueryParameter("search").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter(query.SortByParam).WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter(query.SortDirectionParam).WithSchema(openapi3.NewStringSchema().WithEnum(string(query.Asc), string(query.Desc))),
		openapi3.NewQueryParameter("scope[model]").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("scope[id]").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("scope[field]").WithSchema(openapi3.NewStringSchema()),
		openapi3.NewQueryParameter("scope[inverse_of]").WithSchema(openapi3.NewStringSchema()),
	}
	refs := make([]*openapi3.ParameterRef, 0, len(params))
	for _, p := range params {
		refs = append(refs, &openapi3.ParameterRef{Value: p})
	}
	return refs
}

func (d describer) picker(routes repository.Routes, models []string) {
	modelEnum := make([]any, 0, len(models))
	for _, id := range models {
		modelEnum = append(modelEnum, id)
	}
	for _, multiple := range []bool{false, true} {
		opID, summary := "pickSingle", "Candidates of a belongs-to field"
		if multiple {
			opID, summary = "pickMultiple", "Candidates of a has-many field"
		}
		params := openapi3.Parameters{
			{Value: openapi3.NewQueryParameter("model").WithRequired(true).WithSchema(openapi3.NewStringSchema().WithEnum(modelEnum...))},
			{Value: openapi3.NewQueryParameter("field").WithRequired(true).WithSchema(openapi3.NewStringSchema())},
			{Value: openapi3.NewQueryParameter("record_id").WithSchema(openapi3.NewStringSchema())},
			{Value: openapi3.NewQueryParameter("query").WithSchema(openapi3.NewStringSchema())},
			{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewIntegerSchema().WithMin(1))},
			{Value: openapi3.NewQueryParameter("format").WithSchema(openapi3.NewStringSchema().WithEnum("html", "json"))},
		}
		ok := openapi3.NewResponse().WithDescription("Candidate list")
		ok.Content = openapi3.Content{
			htmlType: openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema()),
			jsonType: openapi3.NewMediaType().WithSchemaRef(d.ref("PickerResponse")),
		}
		d.spec.AddOperation(routes.PickerPath(multiple), http.MethodGet, &openapi3.Operation{
			Tags:        []string{"picker"},
			OperationID: opID,
			Summary:     summary,
			Parameters:  params,
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: ok}),
				openapi3.WithStatus(http.StatusNotFound, plain("Unknown model, field, or record")),
				openapi3.WithStatus(http.StatusUnprocessableEntity, plain("Field cannot be picked")),
			),
		})
	}
}

func (d describer) action(repo *repository.Repository, actions []action.Action) *openapi3.Operation {
	keys := make([]any, 0, len(actions))
	body := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("ids[]", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithRequired([]string{"action_name"})
	for _, a := range actions {
		keys = append(keys, a.Key())
		for _, f := range action.FieldsOf(a) {
			body.WithProperty(f.ParamKey(repo.Model()), kindSchema(f))
		}
	}
	body.WithProperty("action_name", openapi3.NewStringSchema().WithEnum(keys...))

	file := openapi3.NewResponse().WithDescription("File download or HTML fragment")
	file.Content = openapi3.Content{
		"application/octet-stream": openapi3.NewMediaType().WithSchema(openapi3.NewBytesSchema()),
		htmlType:                   openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema()),
		jsonType:                   openapi3.NewMediaType().WithSchemaRef(d.ref("ActionResult")),
	}
	return &openapi3.Operation{
		Tags:        []string{repo.PluralName()},
		OperationID: "run" + repo.ID() + "Action",
		Summary:     "Run a bulk action",
		RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithSchema(body, []string{formType})},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: file}),
			openapi3.WithStatus(http.StatusSeeOther, redirect()),
			openapi3.WithStatus(http.StatusNotFound, plain("Unknown action")),
			openapi3.WithStatus(http.StatusInternalServerError, plain("Action failed")),
		),
	}
}

func formSchema(repo *repository.Repository) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for _, f := range repo.FieldsFor(field.Edit) {
		if f.Kind() == field.KindBlank {
			continue
		}
		name := f.ParamKey(repo.Model())
		if f.Many() {
			name += "[]"
		}
		s.WithProperty(name, kindSchema(f))
	}
	return s
}

func kindSchema(f field.Field) *openapi3.Schema {
	switch f.Kind() {
	case field.KindBoolean:
		return openapi3.NewBoolSchema()
	case field.KindNumber:
		return openapi3.NewFloat64Schema()
	case field.KindDate:
		return openapi3.NewStringSchema().WithFormat("date")
	case field.KindDateTime:
		return openapi3.NewDateTimeSchema()
	case field.KindFile, field.KindImage:
		return openapi3.NewStringSchema().WithFormat("binary")
	case field.KindHasMany, field.KindHasAndBelongsToMany:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	default:
		return openapi3.NewStringSchema()
	}
}

func pickerOptionSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("label", openapi3.NewStringSchema()).
		WithProperty("selected", openapi3.NewBoolSchema()).
		WithRequired([]string{"id", "label", "selected"})
}

func actionResultSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema().WithEnum("success", "error")).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("redirect_path", openapi3.NewStringSchema()).
		WithProperty("file_download", openapi3.NewObjectSchema().
			WithProperty("path", openapi3.NewStringSchema()).
			WithProperty("filename", openapi3.NewStringSchema())).
		WithProperty("custom_fragment", openapi3.NewStringSchema()).
		WithRequired([]string{"status"})
}

func page(tag, id, summary string, params ...*openapi3.ParameterRef) *openapi3.Operation {
	ok := openapi3.NewResponse().WithDescription(summary)
	ok.Content = openapi3.Content{htmlType: openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())}
	return &openapi3.Operation{
		Tags:        []string{tag},
		OperationID: id,
		Summary:     summary,
		Parameters:  openapi3.Parameters(params),
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: ok}),
			openapi3.WithStatus(http.StatusNotFound, plain("Record not found")),
		),
	}
}

func submit(tag, id, summary string, form *openapi3.SchemaRef) *openapi3.Operation {
	invalid := openapi3.NewResponse().WithDescription("Form re-rendered with validation messages")
	invalid.Content = openapi3.Content{htmlType: openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())}
	return &openapi3.Operation{
		Tags:        []string{tag},
		OperationID: id,
		Summary:     summary,
		RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithSchemaRef(form, []string{formType})},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusSeeOther, redirect()),
			openapi3.WithStatus(http.StatusUnprocessableEntity, &openapi3.ResponseRef{Value: invalid}),
		),
	}
}

func redirect() *openapi3.ResponseRef {
	return plain("Redirect with a flash message")
}

func plain(description string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description)}
}
