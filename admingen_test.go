package admingen_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	admingen "github.com/goliatone/go-admingen"
	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/testsupport"
)

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return rec.Code, string(body)
}

func TestNewOpensDatabaseAndServes(t *testing.T) {
	ctx := context.Background()
	catalog := demo.MustCatalog()
	dsn := "file:" + filepath.Join(t.TempDir(), "admin.db") + "?_pragma=foreign_keys(1)"

	admin, err := admingen.New(ctx,
		admingen.WithDatabase("sqlite", dsn),
		admingen.WithCatalog(catalog),
		admingen.WithRegistrar(func(reg *repository.Registry, store *sqlstore.Store) error {
			if err := demo.Migrate(ctx, store.DB(), true); err != nil {
				return err
			}
			return demo.Register(reg, store, catalog, demo.WithExportDir(t.TempDir()))
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	if got := admin.Registry().Models(); len(got) != 4 {
		t.Fatalf("expected the four demo models, got %v", got)
	}

	code, body := get(t, admin.Handler(), "/admin/authors")
	if code != http.StatusOK {
		t.Fatalf("index status %d:\n%s", code, body)
	}
	for _, fragment := range []string{`<link rel="stylesheet" href="/admin/assets/admin.css">`, "Alice", "Bob"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, body)
		}
	}

	code, css := get(t, admin.Handler(), "/admin/assets/admin.css")
	if code != http.StatusOK || !strings.Contains(css, "[data-picker]") {
		t.Fatalf("stylesheet status %d:\n%s", code, css)
	}
}

func TestNewWithStoreKeepsOwnership(t *testing.T) {
	db := testsupport.OpenSQLite(t, append(append([]string{}, demo.Schema...), demo.Seeds...)...)
	catalog := demo.MustCatalog()
	store := sqlstore.New(db, catalog)

	admin, err := admingen.New(context.Background(),
		admingen.WithStore(store),
		admingen.WithBasePath("/backoffice"),
		admingen.WithRegistrar(func(reg *repository.Registry, store *sqlstore.Store) error {
			return demo.Register(reg, store, catalog, demo.WithExportDir(t.TempDir()))
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := admin.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("a borrowed store must stay open: %v", err)
	}

	code, body := get(t, admin.Handler(), "/backoffice/books/2")
	if code != http.StatusOK || !strings.Contains(body, "Dune") {
		t.Fatalf("show status %d:\n%s", code, body)
	}
}

func TestNewRejectsIncompleteConfiguration(t *testing.T) {
	ctx := context.Background()
	noop := func(*repository.Registry, *sqlstore.Store) error { return nil }

	if _, err := admingen.New(ctx, admingen.WithDatabase("sqlite", "file::memory:")); !adminerr.IsConfiguration(err) {
		t.Fatalf("missing registrar must be a configuration error, got %v", err)
	}
	if _, err := admingen.New(ctx, admingen.WithRegistrar(noop)); !adminerr.IsConfiguration(err) {
		t.Fatalf("missing store must be a configuration error, got %v", err)
	}
	if _, err := admingen.New(ctx,
		admingen.WithDatabase("postgres", "postgres://localhost"),
		admingen.WithCatalog(demo.MustCatalog()),
		admingen.WithRegistrar(noop),
	); err == nil {
		t.Fatalf("unsupported driver must fail")
	}
}
