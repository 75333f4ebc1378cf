package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ContentValidator validates block content payloads against their block type.
type ContentValidator interface {
	Validate(def BlockTypeDefinition, content map[string]any) error
}

// JSONSchemaValidator compiles block type schemas and validates content maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]compiledSchema
}

type compiledSchema struct {
	source []byte
	schema *jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]compiledSchema),
	}
}

// Validate ensures the provided content satisfies the block type schema.
func (v *JSONSchemaValidator) Validate(def BlockTypeDefinition, content map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	var payload map[string]any
	if content == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(content)
		if err != nil {
			return fmt.Errorf("%w: marshal content for %s: %v", ErrInvalidContent, def.Name, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("%w: normalize content for %s: %v", ErrInvalidContent, def.Name, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: content for %s failed validation: %v", ErrInvalidContent, def.Name, err)
	}
	return nil
}

// schemaFor compiles lazily and recompiles when a type is re-registered with a new schema.
func (v *JSONSchemaValidator) schemaFor(def BlockTypeDefinition) (*jsonschema.Schema, error) {
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("builder: marshal schema %s: %w", def.Name, err)
	}
	v.mu.RLock()
	entry, ok := v.compiled[def.Name]
	v.mu.RUnlock()
	if ok && bytes.Equal(entry.source, data) {
		return entry.schema, nil
	}
	compiler := jsonschema.NewCompiler()
	name := def.Name + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("builder: load schema %s: %w", def.Name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("builder: compile schema %s: %w", def.Name, err)
	}
	v.mu.Lock()
	v.compiled[def.Name] = compiledSchema{source: data, schema: compiled}
	v.mu.Unlock()
	return compiled, nil
}

type noopContentValidator struct{}

func (noopContentValidator) Validate(BlockTypeDefinition, map[string]any) error { return nil }
