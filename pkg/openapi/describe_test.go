package openapi_test

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/openapi"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/testsupport"
)

func demoRegistry(t *testing.T) *repository.Registry {
	t.Helper()
	db := testsupport.OpenSQLite(t, append(append([]string{}, demo.Schema...), demo.Seeds...)...)
	catalog := demo.MustCatalog()
	reg := repository.NewRegistry(repository.WithRegistryRoutes(repository.NewRoutes("/admin")))
	if err := demo.Register(reg, sqlstore.New(db, catalog), catalog, demo.WithExportDir(t.TempDir())); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func describe(t *testing.T) openapi.Document {
	t.Helper()
	doc, err := openapi.Describe(demoRegistry(t), openapi.WithTitle("Library"), openapi.WithVersion("2.0.0"))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return doc
}

func TestDescribeCoversEveryRoute(t *testing.T) {
	doc := describe(t)
	spec := doc.Spec()
	if spec.Info.Title != "Library" || spec.Info.Version != "2.0.0" {
		t.Fatalf("unexpected info: %+v", spec.Info)
	}

	want := map[string][]string{
		"/admin/books":                         {"GET", "POST"},
		"/admin/books/new":                     {"GET"},
		"/admin/books/{id}":                    {"GET", "POST"},
		"/admin/books/{id}/edit":               {"GET"},
		"/admin/books/{id}/delete":             {"POST"},
		"/admin/books/actions":                 {"POST"},
		"/admin/belongs_to/associated_records": {"GET"},
		"/admin/has_many/associated_records":   {"GET"},
	}
	for path, methods := range want {
		item := spec.Paths.Value(path)
		if item == nil {
			t.Fatalf("missing path %s", path)
		}
		for _, method := range methods {
			if item.GetOperation(method) == nil {
				t.Fatalf("missing %s %s", method, path)
			}
		}
	}
	if spec.Paths.Value("/admin/authors/actions") != nil {
		t.Fatalf("models without actions must not expose an actions path")
	}
}

func TestDescribeFormAndActionSchemas(t *testing.T) {
	spec := describe(t).Spec()

	form := spec.Components.Schemas["TitleForm"]
	if form == nil || form.Value == nil {
		t.Fatalf("missing TitleForm schema")
	}
	if _, ok := form.Value.Properties["book_id"]; !ok {
		t.Fatalf("belongs-to fields submit their foreign key: %v", keys(form.Value.Properties))
	}
	authors := spec.Components.Schemas["AuthorForm"].Value
	books := authors.Properties["book_ids[]"]
	if books == nil || !books.Value.Type.Is("array") {
		t.Fatalf("collection fields submit an id list: %v", keys(authors.Properties))
	}

	op := spec.Paths.Value("/admin/books/actions").Post
	body := op.RequestBody.Value.Content.Get("application/x-www-form-urlencoded").Schema.Value
	var actions []string
	for _, v := range body.Properties["action_name"].Value.Enum {
		actions = append(actions, v.(string))
	}
	if diff := cmp.Diff([]string{"deactivate", "export_pdf"}, sortedCopy(actions)); diff != "" {
		t.Fatalf("action enum mismatch (-want +got):\n%s", diff)
	}
	if _, ok := body.Properties["heading"]; !ok {
		t.Fatalf("action input fields must be documented: %v", keys(body.Properties))
	}

	picker := spec.Paths.Value("/admin/belongs_to/associated_records").Get
	var params []string
	for _, p := range picker.Parameters {
		params = append(params, p.Value.Name)
	}
	if diff := cmp.Diff([]string{"model", "field", "record_id", "query", "limit", "format"}, params); diff != "" {
		t.Fatalf("picker params mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := describe(t)

	raw, err := doc.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tree["openapi"] != "3.0.3" {
		t.Fatalf("unexpected version: %v", tree["openapi"])
	}
	if !strings.Contains(string(raw), `"$ref": "#/components/schemas/PickerResponse"`) {
		t.Fatalf("picker json response must reference the shared schema")
	}

	yml, err := doc.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	parsed, err := openapi.Parse(context.Background(), yml)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := parsed.Validate(context.Background()); err != nil {
		t.Fatalf("validate parsed: %v", err)
	}
	if parsed.Spec().Paths.Value("/admin/books/{id}/edit") == nil {
		t.Fatalf("round trip lost paths")
	}
}

func TestDescribeRequiresRegistry(t *testing.T) {
	if _, err := openapi.Describe(nil); !adminerr.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := openapi.Parse(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if err := (openapi.Document{}).Validate(context.Background()); err == nil {
		t.Fatalf("expected error for zero document")
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return sortedCopy(out)
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
