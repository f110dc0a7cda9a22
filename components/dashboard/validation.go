package dashboard

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/dashboard.schema.json
var dashboardSchema []byte

const dashboardSchemaName = "dashboard.schema.json"

// JSONSchemaValidator compiles a dashboard schema once and validates
// persisted forms against it.
type JSONSchemaValidator struct {
	source []byte

	mu       sync.Mutex
	compiled *jsonschema.Schema
}

var _ Validator = (*JSONSchemaValidator)(nil)

// NewJSONSchemaValidator builds a validator for the bundled dashboard schema.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{source: dashboardSchema}
}

// NewJSONSchemaValidatorFrom builds a validator for a custom schema document.
func NewJSONSchemaValidatorFrom(schema []byte) *JSONSchemaValidator {
	return &JSONSchemaValidator{source: schema}
}

// Schema returns the raw schema the validator checks against.
func (v *JSONSchemaValidator) Schema() []byte {
	return bytes.Clone(v.source)
}

// Validate ensures the persisted form satisfies the schema.
func (v *JSONSchemaValidator) Validate(persisted map[string]any) error {
	schema, err := v.schema()
	if err != nil {
		return err
	}
	payload, err := normalizePayload(persisted)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("dashboard: persisted form failed validation: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.compiled != nil {
		return v.compiled, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(dashboardSchemaName, bytes.NewReader(v.source)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema: %w", err)
	}
	compiled, err := compiler.Compile(dashboardSchemaName)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema: %w", err)
	}
	v.compiled = compiled
	return compiled, nil
}

func normalizePayload(obj map[string]any) (any, error) {
	if obj == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal persisted form: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("dashboard: normalize persisted form: %w", err)
	}
	return payload, nil
}

type noopValidator struct{}

func (noopValidator) Validate(map[string]any) error { return nil }
