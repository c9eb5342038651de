package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the admin server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Admin    AdminConfig    `yaml:"admin"`
	Picker   PickerConfig   `yaml:"picker"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	BasePath     string        `yaml:"base_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects the SQL driver. Supported drivers are "sqlite" and
// "mysql".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Seed loads the demo schema and rows on start.
	Seed bool `yaml:"seed"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AdminConfig configures pages and translations.
type AdminConfig struct {
	PerPage      int    `yaml:"per_page"`
	Locale       string `yaml:"locale"`
	Translations string `yaml:"translations"`
}

type PickerConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// Limit caps the page size a picker request may ask for.
	Limit    int           `yaml:"limit"`
}

// Environment variables read by Load.
const (
	EnvAddr     = "ADMINGEN_ADDR"
	EnvBasePath = "ADMINGEN_BASE_PATH"
	EnvDriver   = "ADMINGEN_DB_DRIVER"
	EnvDSN      = "ADMINGEN_DB_DSN"
	EnvLogLevel = "ADMINGEN_LOG_LEVEL"
	EnvLocale   = "ADMINGEN_LOCALE"
	EnvPerPage  = "ADMINGEN_PER_PAGE"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, when given, and overlays the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAddr, &c.Server.Addr)
	set(EnvBasePath, &c.Server.BasePath)
	set(EnvDriver, &c.Database.Driver)
	set(EnvDSN, &c.Database.DSN)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvLocale, &c.Admin.Locale)

	if v, ok := lookup(EnvPerPage); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPerPage, err)
		}
		c.Admin.PerPage = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/admin"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = "file:admingen.db?_pragma=foreign_keys(1)"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Admin.PerPage <= 0 {
		c.Admin.PerPage = 25
	}
	if c.Admin.Locale == "" {
		c.Admin.Locale = "en"
	}
	if c.Picker.Debounce <= 0 {
		c.Picker.Debounce = 300 * time.Millisecond
	}
	if c.Picker.Limit <= 0 {
		c.Picker.Limit = 200
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database dsn is required for driver %q", c.Database.Driver)
	}
	if _, err := c.Logging.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses the configured log level.
func (l LoggingConfig) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("config: logging level: %w", err)
	}
	return level, nil
}
