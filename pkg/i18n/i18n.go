// Package i18n resolves interface strings from YAML catalogs. Lookups always
// carry a default so a missing catalog never breaks a page.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Translator resolves key for locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingHandler decides what a missing key renders as.
type MissingHandler func(locale, key, fallback string, err error) string

var ErrMissingTranslation = errors.New("i18n: missing translation")

// Vars are interpolated into %{name} placeholders.
type Vars map[string]any

// Catalog is an in-memory Translator keyed by locale and dotted key.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
}

var _ Translator = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{messages: make(map[string]map[string]string)}
}

// Add merges flat messages for locale.
func (c *Catalog) Add(locale string, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.messages == nil {
		c.messages = make(map[string]map[string]string)
	}
	bucket := c.messages[locale]
	if bucket == nil {
		bucket = make(map[string]string, len(messages))
		c.messages[locale] = bucket
	}
	for key, value := range messages {
		bucket[key] = value
	}
}

// LoadYAML reads a document whose top-level keys are locales and whose
// nested maps are flattened into dotted keys.
func (c *Catalog) LoadYAML(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse: %w", err)
	}
	for locale, tree := range doc {
		nested, ok := tree.(map[string]any)
		if !ok {
			return fmt.Errorf("i18n: locale %q must map to a tree of messages", locale)
		}
		flat := make(map[string]string)
		flatten("", nested, flat)
		c.Add(locale, flat)
	}
	return nil
}

// LoadFS reads every .yml/.yaml file under fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := NewCatalog()
	if fsys == nil {
		return catalog, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		ext := strings.ToLower(filepath.Ext(path))
		if entry.IsDir() || (ext != ".yml" && ext != ".yaml") {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", path, err)
		}
		if err := catalog.LoadYAML(data); err != nil {
			return fmt.Errorf("%w (file %s)", err, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	msg, ok := c.messages[locale][key]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrMissingTranslation, locale, key)
	}
	return Interpolate(msg, varsFrom(args)), nil
}

// Locales returns the loaded locales, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Interpolate replaces %{name} placeholders present in vars.
func Interpolate(msg string, vars Vars) string {
	if len(vars) == 0 || !strings.Contains(msg, "%{") {
		return msg
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "%{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func varsFrom(args []any) Vars {
	out := Vars{}
	for _, arg := range args {
		switch v := arg.(type) {
		case Vars:
			for k, val := range v {
				out[k] = val
			}
		case map[string]any:
			for k, val := range v {
				out[k] = val
			}
		}
	}
	return out
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
