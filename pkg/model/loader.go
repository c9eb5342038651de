package model

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Models map[string]Model `json:"models" yaml:"models"`
}

// LoadFS walks fsys and reads every YAML or JSON catalog file into a single
// Catalog. A model defined in two files is an error.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{models: make(map[string]Model)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("model: read %s: %w", path, err)
		}
		return loadInto(catalog, data, path)
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Parse reads a single catalog document.
func Parse(data []byte) (*Catalog, error) {
	catalog := &Catalog{models: make(map[string]Model)}
	if err := loadInto(catalog, data, "<inline>"); err != nil {
		return nil, err
	}
	return catalog, nil
}

func loadInto(catalog *Catalog, data []byte, source string) error {
	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf("model: file %s is empty", source)
	}

	var doc catalogFile
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("model: parse %s: %w", source, err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("model: parse %s: %w", source, err)
	}

	for id, m := range doc.Models {
		m.ID = strings.TrimSpace(id)
		if err := catalog.Add(m); err != nil {
			return fmt.Errorf("%w (file %s)", err, source)
		}
	}
	return nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
