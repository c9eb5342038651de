package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/internal/server"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/testsupport"
)

type fixture struct {
	reg     *repository.Registry
	handler http.Handler
}

func newFixture(t *testing.T, opts ...server.Option) fixture {
	t.Helper()
	db := testsupport.OpenSQLite(t, append(append([]string{}, demo.Schema...), demo.Seeds...)...)
	catalog := demo.MustCatalog()
	reg := repository.NewRegistry(repository.WithRegistryRoutes(repository.NewRoutes("/admin")))
	require.NoError(t, demo.Register(reg, sqlstore.New(db, catalog), catalog, demo.WithExportDir(t.TempDir())))

	srv, err := server.New(append([]server.Option{server.WithRegistry(reg)}, opts...)...)
	require.NoError(t, err)
	return fixture{reg: reg, handler: srv.Handler()}
}

func (f fixture) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func flashCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == server.FlashCookie {
			return c
		}
	}
	t.Fatalf("expected %s cookie", server.FlashCookie)
	return nil
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := server.New()
	assert.True(t, adminerr.IsConfiguration(err), "got %v", err)
}

func TestDashboardListsModels(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, href := range []string{"/admin/authors", "/admin/books", "/admin/reviews", "/admin/titles"} {
		assert.Contains(t, body, `href="`+href+`"`)
	}
}

func TestIndexSearchAndSort(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/admin/authors?search=ali")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")
	assert.NotContains(t, rec.Body.String(), "Bob")

	rec = f.get(t, "/admin/authors?"+url.Values{"sort[by]": {"name"}, "sort[direction]": {"desc"}}.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Bob"), strings.Index(body, "Alice"))
	assert.Contains(t, body, `data-direction="desc"`)
	assert.Contains(t, body, "sort%5Bby%5D=name&amp;sort%5Bdirection%5D=asc")
}

func TestIndexPaginates(t *testing.T) {
	f := newFixture(t, server.WithPerPage(1))

	first := f.get(t, "/admin/authors").Body.String()
	assert.Contains(t, first, "Alice")
	assert.Contains(t, first, `rel="next" href="/admin/authors?page=2"`)
	assert.Contains(t, first, "Page 1 of 2")
	assert.NotContains(t, first, `rel="prev"`)

	second := f.get(t, "/admin/authors?page=2").Body.String()
	assert.Contains(t, second, "Bob")
	assert.Contains(t, second, `rel="prev" href="/admin/authors?page=1"`)
}

func TestScopedIndex(t *testing.T) {
	f := newFixture(t)
	scope := url.Values{
		"scope[model]": {"Book"},
		"scope[id]":    {"1"},
		"scope[field]": {"titles"},
	}
	rec := f.get(t, "/admin/titles?"+scope.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-id="1"`)
	assert.Contains(t, body, `data-id="2"`)
	assert.NotContains(t, body, `data-id="3"`)
	assert.Contains(t, body, `href="/admin/books/1"`)
	assert.NotContains(t, body, "<th>Book")

	scope.Set("scope[field]", "authors")
	assert.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/admin/titles?"+scope.Encode()).Code)

	scope.Set("scope[model]", "Nope")
	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/titles?"+scope.Encode()).Code)
}

func TestShowAndMissingRecord(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/admin/books/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mørkets venstre hånd")

	missing := f.get(t, "/admin/books/99")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), `data-status="404"`)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/admin/widgets").Code)
}

func TestCreateValidatesThenRedirects(t *testing.T) {
	f := newFixture(t)

	invalid := f.post(t, "/admin/authors", url.Values{"name": {"  "}})
	require.Equal(t, http.StatusUnprocessableEntity, invalid.Code)
	assert.Contains(t, invalid.Body.String(), "can&#39;t be blank")

	created := f.post(t, "/admin/authors", url.Values{"name": {"Carol"}, "book_ids[]": {"2"}})
	require.Equal(t, http.StatusSeeOther, created.Code)
	assert.Equal(t, "/admin/authors/3", created.Header().Get("Location"))

	page := f.get(t, "/admin/authors/3", flashCookie(t, created))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Author was created.")
	assert.Contains(t, page.Body.String(), "Carol")
	assert.Contains(t, page.Body.String(), "Dune")
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updated := f.post(t, "/admin/books/2", url.Values{"original_title": {"Dune Messiah"}})
	require.Equal(t, http.StatusSeeOther, updated.Code)
	assert.Equal(t, "/admin/books/2", updated.Header().Get("Location"))

	books, err := f.reg.For("Book")
	require.NoError(t, err)
	book, err := books.Find(ctx, "2")
	require.NoError(t, err)
	title, _ := book.Attr("original_title")
	assert.Equal(t, "Dune Messiah", title)

	blank := f.post(t, "/admin/books/2", url.Values{"original_title": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, blank.Code)

	deleted := f.post(t, "/admin/reviews/3/delete", nil)
	require.Equal(t, http.StatusSeeOther, deleted.Code)
	assert.Equal(t, "/admin/reviews", deleted.Header().Get("Location"))

	reviews, err := f.reg.For("Review")
	require.NoError(t, err)
	_, err = reviews.Find(ctx, "3")
	assert.True(t, adminerr.IsNotFound(err), "got %v", err)
}

func TestBulkActionThroughServer(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/admin/books/actions", url.Values{"action_name": {"deactivate"}, "ids[]": {"2"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/books", rec.Header().Get("Location"))

	page := f.get(t, "/admin/books", flashCookie(t, rec))
	assert.Contains(t, page.Body.String(), "Deactivated 1 books.")
	assert.Contains(t, page.Body.String(), `<option value="export_pdf">`)
}

func TestPickerThroughServer(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/admin/belongs_to/associated_records?model=Title&field=book&record_id=3&format=json")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data []struct {
			ID       string `json:"id"`
			Label    string `json:"label"`
			Selected bool   `json:"selected"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 2)
	assert.Equal(t, "Dune", payload.Data[1].Label)
	assert.True(t, payload.Data[1].Selected)
}

func TestRequestIDs(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/admin")
	_, err := uuid.Parse(rec.Header().Get(server.RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(server.RequestIDHeader, id)
	echoed := httptest.NewRecorder()
	f.handler.ServeHTTP(echoed, req)
	assert.Equal(t, id, echoed.Header().Get(server.RequestIDHeader))
	assert.Contains(t, echoed.Body.String(), `data-request-id="`+id+`"`)
}

func TestLocalizedPages(t *testing.T) {
	translations, err := demo.Translations()
	require.NoError(t, err)
	f := newFixture(t, server.WithTranslations(translations, "en", "da"))

	rec := f.get(t, "/admin/authors?locale=da")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Forfattere</h1>")
	assert.Contains(t, rec.Body.String(), "Navn")

	req := httptest.NewRequest(http.MethodGet, "/admin/books/new", nil)
	req.Header.Set("Accept-Language", "da-DK,da;q=0.9,en;q=0.8")
	accepted := httptest.NewRecorder()
	f.handler.ServeHTTP(accepted, req)
	assert.Contains(t, accepted.Body.String(), "Ny Bog")
}

func TestGuardRejects(t *testing.T) {
	f := newFixture(t, server.WithGuard(func(r *http.Request) error {
		if r.Header.Get("Authorization") == "" {
			return errors.New("login required")
		}
		return nil
	}))
	assert.Equal(t, http.StatusForbidden, f.get(t, "/admin/authors").Code)
	assert.Equal(t, http.StatusForbidden, f.get(t, "/admin/has_many/associated_records?model=Author&field=books").Code)
}
