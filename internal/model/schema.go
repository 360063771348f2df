package model

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

const identifierPattern = `^[A-Za-z_][A-Za-z0-9_]*$`

func ptr[T any](v T) *T { return &v }

// closed forbids properties not listed in Properties. Schemas must form a
// tree, so every use gets its own node.
func closed() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func variableSchema(named bool) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"type", "params"},
		Properties: map[string]*jsonschema.Schema{
			"type": {
				Type:        "string",
				Description: "Triangular, Normal, Uniform or Fixed",
			},
			"params": {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "number"},
			},
			"round": {Type: "boolean"},
		},
		AdditionalProperties: closed(),
	}
	if named {
		s.Required = append(s.Required, "name")
		s.Properties["name"] = &jsonschema.Schema{Type: "string", Pattern: identifierPattern}
	}
	return s
}

// VariablesSchema describes a variable set in either encoding: an object
// keyed by variable name, or an array of named entries.
func VariablesSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Random inputs keyed by variable name, e.g. {\"Revenue\": {\"type\": \"Triangular\", \"params\": {\"lower\": 80, \"mode\": 100, \"upper\": 140}}}. " +
			"Params: Triangular(lower, mode, upper), Normal(mean, std), Uniform(min, max), Fixed(value).",
		AnyOf: []*jsonschema.Schema{
			{
				Type:                 "object",
				MinProperties:        ptr(1),
				PropertyNames:        &jsonschema.Schema{Pattern: identifierPattern},
				AdditionalProperties: variableSchema(false),
			},
			{
				Type:     "array",
				MinItems: ptr(1),
				Items:    variableSchema(true),
			},
		},
	}
}

// ConfigurationSchema describes the configuration body of a document.
func ConfigurationSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"variables", "formula", "target_direction", "n_simulations"},
		Properties: map[string]*jsonschema.Schema{
			"variables":        VariablesSchema(),
			"formula_name":     {Type: "string"},
			"formula":          {Type: "string", MinLength: ptr(1)},
			"target_value":     {Type: "number"},
			"target_direction": {Type: "string"},
			"n_simulations":    {Type: "integer", Minimum: ptr(1.0)},
		},
		AdditionalProperties: closed(),
	}
}

// Schema returns the JSON Schema of a configuration document.
func Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title:    "Monte Carlo configuration",
		Type:     "object",
		Required: []string{"name", "config"},
		Properties: map[string]*jsonschema.Schema{
			"id":          {Type: "string"},
			"name":        {Type: "string", MinLength: ptr(1)},
			"description": {Type: "string"},
			"config":      ConfigurationSchema(),
			"created_at":  {Type: "string", Format: "date-time"},
			"updated_at":  {Type: "string", Format: "date-time"},
			"version":     {Type: "integer", Minimum: ptr(0.0)},
		},
		AdditionalProperties: closed(),
	}
}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return Schema().Resolve(nil)
})

// ValidateDocument checks a raw configuration document against Schema.
func ValidateDocument(data []byte, format Format) error {
	rs, err := resolvedSchema()
	if err != nil {
		return fmt.Errorf("resolve configuration schema: %w", err)
	}
	doc, err := toJSONValue(data, format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := rs.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}
