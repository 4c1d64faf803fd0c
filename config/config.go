// Package config loads and validates the operator-supplied configuration
// for a cache instance (skip list sizing, promotion probability, worker
// pool size) against a JSON Schema before any of it reaches the
// constructors that assume it's already sane, the same gate jsondata.go
// puts in front of document bodies before they reach the database layer.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var embeddedSchemaFS embed.FS

// Config holds the validated settings used to construct the cache's
// skip list and worker pool.
type Config struct {
	MaxSize              int     `json:"maxSize"`
	MaxLevels            int     `json:"maxLevels"`
	PromotionProbability float64 `json:"promotionProbability"`
	Workers              int     `json:"workers"`
	QueueSize            int     `json:"queueSize"`
}

// Schema wraps a compiled JSON Schema used to validate configuration
// documents before they're unmarshalled into a Config.
type Schema struct {
	compiled *jsonschema.Schema
}

// NewSchema compiles the embedded configuration schema. It mirrors
// jsondata.New, which compiles an operator-supplied schema file; this
// package's schema ships with the binary instead, since the shape of a
// Config is fixed by this module rather than supplied per deployment.
func NewSchema() (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	raw, err := embeddedSchemaFS.ReadFile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("config: failed to read embedded schema: %w", err)
	}
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("config: failed to load embedded schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile embedded schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks raw JSON against the schema without unmarshalling it
// into a Config, letting callers surface validation errors before
// committing to a parse.
func (s *Schema) Validate(raw []byte) error {
	var unmarshalled any
	if err := json.Unmarshal(raw, &unmarshalled); err != nil {
		return fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := s.compiled.Validate(unmarshalled); err != nil {
		return fmt.Errorf("config: document does not conform to schema: %w", err)
	}
	return nil
}

// Load reads path, validates it against the embedded schema, and
// unmarshals it into a Config filled with package defaults for any
// field the document omits.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	schema, err := NewSchema()
	if err != nil {
		return Config{}, err
	}
	if err := schema.Validate(raw); err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the package's baseline configuration, used as the
// starting point for Load and as a zero-config fallback for callers
// that don't supply a file.
func Default() Config {
	return Config{
		MaxSize:              10_000,
		MaxLevels:            32,
		PromotionProbability: 0.5,
		Workers:              0,
		QueueSize:            1024,
	}
}
