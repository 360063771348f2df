package mcp

import (
	"montecarlo-mcp/internal/model"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Required: required, Properties: props}
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func weightsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Optional what-if multipliers per variable (e.g. {\"Revenue\": 1.2}). Unlisted variables keep 1.0.",
		AdditionalProperties: &jsonschema.Schema{Type: "number"},
	}
}

func seedSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: "Optional random seed. The same seed and inputs reproduce the same draws. 0 or omitted uses the server default."}
}

func simulationProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"variables":        model.VariablesSchema(),
		"formula":          str("Arithmetic over variable names using + - * / ** and parentheses, e.g. 'Revenue - Cost'. No functions or other syntax."),
		"formula_name":     str("Label of the result in the probability text, e.g. 'Profit'."),
		"target_value":     {Type: "number", Description: "Threshold the result is compared against."},
		"target_direction": {Type: "string", Enum: []any{"greater_than", "less_than"}, Description: "Which side of the target counts as success. Outcomes equal to the target count toward neither side."},
		"n_simulations":    {Type: "integer", Minimum: ptr(1.0), Description: "Number of draws per variable. Omit to use the server default."},
		"seed":             seedSchema(),
	}
}

func ptr[T any](v T) *T { return &v }

var simulationRequired = []string{"variables", "formula", "target_value", "target_direction"}

func (s *Server) registerTools() {
	addTool(s, &sdk.Tool{
		Name: "run_simulation",
		Description: "Run a Monte Carlo simulation: draw every variable from its distribution, evaluate the formula element-wise and report " +
			"mean, median, population std, 5th/95th percentiles and the probability of beating the target.\n\n" +
			"Report the returned probability_text verbatim. DO NOT extrapolate probabilities the tool did not compute.",
		InputSchema: object(simulationRequired, simulationProperties()),
	}, s.handleRunSimulation)

	sensitivityProps := simulationProperties()
	sensitivityProps["weights"] = weightsSchema()
	addTool(s, &sdk.Tool{
		Name: "analyze_sensitivity",
		Description: "Attribute the variance of the formula result to each variable by holding it at its sample mean " +
			"(impacts are percentages summing to 100, or all 0 when no variable explains any variance), and compare the base " +
			"result with a what-if run where each variable's draws are multiplied by its weight. Both runs share the same draws.",
		InputSchema: object(simulationRequired, sensitivityProps),
	}, s.handleAnalyzeSensitivity)

	addTool(s, &sdk.Tool{
		Name:        "validate_formula",
		Description: "Check a formula without simulating: reports syntax errors with their position, the variables it references and, when variable names are given, which ones are undefined.",
		InputSchema: object([]string{"formula"}, map[string]*jsonschema.Schema{
			"formula":   str("Formula to check."),
			"variables": {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Optional names of the variables that will be defined."},
		}),
	}, s.handleValidateFormula)

	addTool(s, &sdk.Tool{
		Name:        "save_configuration",
		Description: "Store a named configuration (variables, formula, target, direction, number of simulations) for later runs. Returns the new id.",
		InputSchema: object([]string{"name", "config"}, map[string]*jsonschema.Schema{
			"name":        str("Display name."),
			"description": str("Optional free text."),
			"config":      model.ConfigurationSchema(),
		}),
	}, s.handleSaveConfiguration)

	addTool(s, &sdk.Tool{
		Name:        "update_configuration",
		Description: "Replace the configuration stored under id. The version is incremented.",
		InputSchema: object([]string{"id", "config"}, map[string]*jsonschema.Schema{
			"id":     str("Configuration id from list_configurations."),
			"config": model.ConfigurationSchema(),
		}),
	}, s.handleUpdateConfiguration)

	addTool(s, &sdk.Tool{
		Name:        "load_configuration",
		Description: "Return a stored configuration with its metadata.",
		InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{"id": str("Configuration id.")}),
	}, s.handleLoadConfiguration)

	addTool(s, &sdk.Tool{
		Name:        "list_configurations",
		Description: "List stored configurations, newest first.",
		InputSchema: object(nil, map[string]*jsonschema.Schema{}),
	}, s.handleListConfigurations)

	addTool(s, &sdk.Tool{
		Name:        "delete_configuration",
		Description: "Delete a stored configuration.",
		InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{"id": str("Configuration id.")}),
	}, s.handleDeleteConfiguration)

	addTool(s, &sdk.Tool{
		Name:        "run_configuration",
		Description: "Run a stored configuration. With sensitivity=true (or any weights) the result matches analyze_sensitivity, otherwise run_simulation.",
		InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{
			"id":          str("Configuration id."),
			"sensitivity": {Type: "boolean", Description: "Include the variance attribution."},
			"weights":     weightsSchema(),
			"seed":        seedSchema(),
		}),
	}, s.handleRunConfiguration)
}
