package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admingen.yaml")
	raw := []byte(`
server:
  addr: ":9000"
  base_path: /backoffice
database:
  driver: MySQL
  dsn: "user:pw@tcp(localhost:3306)/library"
admin:
  per_page: 10
picker:
  debounce: 150ms
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadWithEnv(path, env(map[string]string{
		EnvAddr:     "127.0.0.1:7000",
		EnvLogLevel: "debug",
		EnvLocale:   "da",
		EnvBasePath: "  ",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" || cfg.Server.BasePath != "/backoffice" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Fatalf("driver must be normalised, got %q", cfg.Database.Driver)
	}
	if cfg.Admin.PerPage != 10 || cfg.Admin.Locale != "da" {
		t.Fatalf("unexpected admin config: %+v", cfg.Admin)
	}
	if cfg.Picker.Debounce != 150*time.Millisecond || cfg.Picker.Limit != 200 {
		t.Fatalf("unexpected picker config: %+v", cfg.Picker)
	}
	if level, _ := cfg.Logging.ZapLevel(); level != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":    {EnvDriver: "postgres"},
		"level":     {EnvLogLevel: "chatty"},
		"per page":  {EnvPerPage: "many"},
		"mysql dsn": {EnvDriver: "mysql"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWithEnv("", env(values)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWithEnv(path, env(nil)); err == nil {
		t.Fatalf("expected parse error")
	}
}
