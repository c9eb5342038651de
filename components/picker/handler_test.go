package picker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/testsupport"
)

type handlerResponse struct {
	Data []Candidate `json:"data"`
}

func newRegistry(t *testing.T, statements ...string) *repository.Registry {
	t.Helper()
	fixtures := append(append([]string{}, demo.Schema...), demo.Seeds...)
	db := testsupport.OpenSQLite(t, append(fixtures, statements...)...)
	catalog := demo.MustCatalog()
	reg := repository.NewRegistry(repository.WithRegistryRoutes(repository.NewRoutes("/admin")))
	if err := demo.Register(reg, sqlstore.New(db, catalog), catalog, demo.WithExportDir(t.TempDir())); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func serve(t *testing.T, h http.Handler, method string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/admin/picker?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) []Candidate {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload.Data
}

func TestSingleHandler_CollectionQueryAndSelection(t *testing.T) {
	h := NewHandler(false, WithRegistry(newRegistry(t)))

	got := decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Title"}, "field": {"book"}, "record_id": {"1"}, "format": {"json"},
	}))
	want := []Candidate{
		{ID: "1", Label: "The Left Hand of Darkness", Selected: true},
		{ID: "2", Label: "Dune"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	// Inactive books never match, whatever the search term.
	got = decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"titles"}, "field": {"book"}, "query": {"print"}, "format": {"json"},
	}))
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %#v", got)
	}

	got = decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"title"}, "field": {"book"}, "query": {"LEFT"}, "format": {"json"},
	}))
	if len(got) != 1 || got[0].ID != "1" || got[0].Selected {
		t.Fatalf("expected unselected book 1, got %#v", got)
	}
}

func TestMultipleHandler_SelectionAndLimit(t *testing.T) {
	h := NewHandler(true, WithRegistry(newRegistry(t)), WithMaxLimit(2))

	got := decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Author"}, "field": {"books"}, "record_id": {"1"}, "format": {"json"},
	}))
	if len(got) != 3 || !got[0].Selected {
		t.Fatalf("without a limit every candidate is listed, got %#v", got)
	}

	got = decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Author"}, "field": {"books"}, "record_id": {"1"}, "limit": {"10"}, "format": {"json"},
	}))
	want := []Candidate{
		{ID: "1", Label: "The Left Hand of Darkness", Selected: true},
		{ID: "2", Label: "Dune"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("max limit must cap the requested limit (-want +got):\n%s", diff)
	}

	got = decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Author"}, "field": {"books"}, "limit": {"1"}, "format": {"json"},
	}))
	if len(got) != 1 || got[0].Selected {
		t.Fatalf("expected one unselected candidate, got %#v", got)
	}
}

func TestMultipleHandler_ListsEveryCandidateByDefault(t *testing.T) {
	var statements []string
	for i := 0; i < 300; i++ {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO books (id, original_title, active) VALUES (%d, 'Volume %03d', 1)", 100+i, i))
	}
	statements = append(statements, "INSERT INTO authors_books (author_id, book_id) VALUES (1, 399)")
	h := NewHandler(true, WithRegistry(newRegistry(t, statements...)))

	got := decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Author"}, "field": {"books"}, "record_id": {"1"}, "format": {"json"},
	}))
	if len(got) != 303 {
		t.Fatalf("expected every book, got %d", len(got))
	}
	var selected []string
	for _, c := range got {
		if c.Selected {
			selected = append(selected, c.ID)
		}
	}
	if diff := cmp.Diff([]string{"1", "399"}, selected); diff != "" {
		t.Fatalf("selected mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_PolymorphicAssociation(t *testing.T) {
	h := NewHandler(false, WithRegistry(newRegistry(t)))

	got := decode(t, serve(t, h, http.MethodGet, url.Values{
		"model": {"Review"}, "field": {"reviewable"}, "record_id": {"2"}, "format": {"json"},
	}))
	want := []Candidate{
		{ID: "1", Label: "Alice"},
		{ID: "2", Label: "Bob", Selected: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	rec := serve(t, h, http.MethodGet, url.Values{"model": {"Review"}, "field": {"reviewable"}, "record_id": {"3"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unset polymorphic value, got %d", rec.Code)
	}
}

func TestHandler_Errors(t *testing.T) {
	reg := newRegistry(t)
	single := NewHandler(false, WithRegistry(reg))
	multiple := NewHandler(true, WithRegistry(reg))

	cases := []struct {
		name    string
		handler http.Handler
		params  url.Values
		status  int
	}{
		{"unknown model", single, url.Values{"model": {"Publisher"}, "field": {"book"}}, http.StatusNotFound},
		{"missing model", single, url.Values{"field": {"book"}}, http.StatusNotFound},
		{"unknown field", single, url.Values{"model": {"Title"}, "field": {"publisher"}}, http.StatusNotFound},
		{"plain field", single, url.Values{"model": {"Title"}, "field": {"locale"}}, http.StatusUnprocessableEntity},
		{"missing record", single, url.Values{"model": {"Title"}, "field": {"book"}, "record_id": {"99"}}, http.StatusNotFound},
		{"collection on single", single, url.Values{"model": {"Author"}, "field": {"books"}}, http.StatusUnprocessableEntity},
		{"single on multiple", multiple, url.Values{"model": {"Title"}, "field": {"book"}}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, tc.handler, http.MethodGet, tc.params)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_MissingRegistryIsConfigurationError(t *testing.T) {
	rec := serve(t, Handler(), http.MethodGet, url.Values{"model": {"Title"}, "field": {"book"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected configuration status, got %d", rec.Code)
	}
}

func TestHandler_HTMLFragment(t *testing.T) {
	reg := newRegistry(t)

	rec := serve(t, Handler(WithRegistry(reg)), http.MethodGet, url.Values{
		"model": {"Title"}, "field": {"book"}, "record_id": {"1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content-type, got %q", ct)
	}
	body := rec.Body.String()
	for _, fragment := range []string{
		`role="listbox" id="title_book_options"`,
		`data-id="1" data-label="The Left Hand of Darkness" aria-selected="true"`,
		`data-id="2" data-label="Dune" aria-selected="false"`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, body)
		}
	}

	rec = serve(t, NewHandler(true, WithRegistry(reg)), http.MethodGet, url.Values{
		"model": {"Author"}, "field": {"books"}, "record_id": {"2"},
	})
	body = rec.Body.String()
	if !strings.Contains(body, `aria-multiselectable="true"`) || !strings.Contains(body, `value="2" data-label="Dune" checked`) {
		t.Fatalf("unexpected multiple fragment:\n%s", body)
	}

	rec = serve(t, Handler(WithRegistry(reg)), http.MethodGet, url.Values{
		"model": {"Title"}, "field": {"book"}, "query": {"nothing matches"},
	})
	if !strings.Contains(rec.Body.String(), "No records found") {
		t.Fatalf("expected empty state, got:\n%s", rec.Body.String())
	}
}

func TestHandler_GuardAndMethods(t *testing.T) {
	h := Handler(
		WithRegistry(newRegistry(t)),
		WithGuard(func(r *http.Request) error {
			if r.Header.Get("X-Admin") == "" {
				return StatusError{Code: http.StatusUnauthorized, Err: errors.New("unauthorized")}
			}
			return nil
		}),
	)

	rec := serve(t, h, http.MethodGet, url.Values{"model": {"Title"}, "field": {"book"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = serve(t, h, http.MethodPost, url.Values{"model": {"Title"}, "field": {"book"}})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header %q", allow)
	}

	req := httptest.NewRequest(http.MethodHead, "/admin/picker?model=Title&field=book&format=json", nil)
	req.Header.Set("X-Admin", "1")
	head := httptest.NewRecorder()
	h.ServeHTTP(head, req)
	if head.Code != http.StatusOK || head.Body.Len() != 0 {
		t.Fatalf("expected empty 200 for HEAD, got %d with %q", head.Code, head.Body.String())
	}

	denied := Handler(WithRegistry(newRegistry(t)), WithGuard(func(*http.Request) error { return errors.New("no") }))
	if rec := serve(t, denied, http.MethodGet, url.Values{}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected default 403, got %d", rec.Code)
	}
}

func TestRegistryForWinsOverRegistry(t *testing.T) {
	reg := newRegistry(t)
	empty := repository.NewRegistry()
	h := Handler(WithRegistry(empty), WithRegistryFor(func(*http.Request) *repository.Registry { return reg }))
	decode(t, serve(t, h, http.MethodGet, url.Values{"model": {"Title"}, "field": {"book"}, "format": {"json"}}))
}

func TestClampLimit(t *testing.T) {
	opts := NewOptions(WithDefaultLimit(10), WithMaxLimit(20))
	cases := map[int]int{-1: 10, 0: 10, 5: 5, 50: 20}
	for in, want := range cases {
		if got := clampLimit(in, opts); got != want {
			t.Fatalf("clampLimit(%d): expected %d, got %d", in, want, got)
		}
	}

	defaults := NewOptions()
	for in, want := range map[int]int{-1: 0, 0: 0, 7: 7, 500: 200} {
		if got := clampLimit(in, defaults); got != want {
			t.Fatalf("default clampLimit(%d): expected %d, got %d", in, want, got)
		}
	}
}
