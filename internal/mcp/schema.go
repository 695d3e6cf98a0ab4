package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ArgumentError indicates tool arguments do not satisfy the input schema.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// ParseArguments decodes a JSON object of tool arguments.
// Empty input yields an empty object.
func ParseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}

	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// ValidateArguments checks args against a tool's input schema as returned
// by tools/list. A nil schema accepts anything.
func ValidateArguments(tool string, inputSchema any, args map[string]any) error {
	if inputSchema == nil {
		return nil
	}

	schema, err := toSchema(inputSchema)
	if err != nil {
		return fmt.Errorf("tool %q input schema: %w", tool, err)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %q input schema: %w", tool, err)
	}

	if err := resolved.Validate(args); err != nil {
		return &ArgumentError{Tool: tool, Err: err}
	}

	return nil
}

// toSchema converts whatever the SDK decoded into a jsonschema.Schema.
func toSchema(inputSchema any) (*jsonschema.Schema, error) {
	if s, ok := inputSchema.(*jsonschema.Schema); ok {
		return s, nil
	}

	data, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, err
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}

	// Servers commonly declare older drafts; validate with the 2020-12 rules.
	schema.Schema = ""

	return &schema, nil
}
