package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/internal/demo"
	"github.com/goliatone/go-admingen/pkg/i18n"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "admingen.yaml")
	body := "database:\n" +
		"  driver: sqlite\n" +
		"  dsn: \"file:" + filepath.Join(dir, "library.db") + "?_pragma=foreign_keys(1)\"\n" +
		"  seed: true\n" +
		"logging:\n" +
		"  level: error\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestOpenAPICommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"openapi", "--config", writeConfig(t), "--format", "json"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v\n%s", err, out.String())
	}
	for _, fragment := range []string{`"openapi": "3.0.3"`, `"/admin/books/{id}"`, `"/admin/belongs_to/associated_records"`} {
		if !strings.Contains(out.String(), fragment) {
			t.Fatalf("expected %s in:\n%s", fragment, out.String())
		}
	}
}

func TestLocalesPutPreferredFirst(t *testing.T) {
	catalog, err := demo.Translations()
	if err != nil {
		t.Fatalf("translations: %v", err)
	}
	if diff := cmp.Diff([]string{"en", "da"}, locales("en", catalog)); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"da", "en"}, locales("da", catalog)); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
}

func TestPickLabelsAreTranslated(t *testing.T) {
	catalog, err := demo.Translations()
	if err != nil {
		t.Fatalf("translations: %v", err)
	}

	placeholder, count := pickLabels(i18n.NewLocalizer(catalog, "da"))
	if placeholder != "Vælg..." || count(2) != "2 valgt" {
		t.Fatalf("unexpected danish labels: %q %q", placeholder, count(2))
	}

	placeholder, count = pickLabels(i18n.NewLocalizer(nil, "en"))
	if placeholder != "Select items..." || count(3) != "3 selected" {
		t.Fatalf("unexpected fallback labels: %q %q", placeholder, count(3))
	}
}
