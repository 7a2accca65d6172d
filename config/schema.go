package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed rewrite_schema.json
var schemaBytes []byte

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// getSchema compiles the embedded schema once and reuses it.
func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemaBytes)
		compiledSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	if compileErr != nil {
		return nil, fmt.Errorf("compiling config schema: %w", compileErr)
	}
	return compiledSchema, nil
}

// ValidateDocument checks a raw YAML config document against the schema.
// It returns one message per violation, and an error only when the document
// could not be checked at all.
func ValidateDocument(data []byte) ([]string, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config document: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting config document: %w", err)
	}

	schema, err := getSchema()
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonDoc))
	if err != nil {
		return nil, fmt.Errorf("validating config document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
