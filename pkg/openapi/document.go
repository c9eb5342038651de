package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Document wraps a generated or loaded OpenAPI document.
type Document struct {
	spec *openapi3.T
}

// Spec returns the underlying kin-openapi document.
func (d Document) Spec() *openapi3.T { return d.spec }

// Validate checks the document against the OpenAPI 3 rules.
func (d Document) Validate(ctx context.Context) error {
	if d.spec == nil {
		return errors.New("openapi: empty document")
	}
	if err := d.spec.Validate(ctx); err != nil {
		return fmt.Errorf("openapi: invalid document: %w", err)
	}
	return nil
}

// JSON renders the document as indented JSON.
func (d Document) JSON() ([]byte, error) {
	if d.spec == nil {
		return nil, errors.New("openapi: empty document")
	}
	return json.MarshalIndent(d.spec, "", "  ")
}

// YAML renders the document as YAML.
func (d Document) YAML() ([]byte, error) {
	if d.spec == nil {
		return nil, errors.New("openapi: empty document")
	}
	// Round trip through JSON so that kin-openapi's field names and
	// extensions are kept.
	raw, err := d.JSON()
	if err != nil {
		return nil, err
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("openapi: yaml: %w", err)
	}
	return yaml.Marshal(tree)
}

// Parse loads a JSON or YAML document.
func Parse(ctx context.Context, raw []byte) (Document, error) {
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return Document{}, fmt.Errorf("openapi: parse: %w", err)
	}
	return Document{spec: spec}, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(ctx context.Context, path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return Parse(ctx, raw)
}
