package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"montecarlo-mcp/internal/config"
	"montecarlo-mcp/internal/configstore"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		DefaultSimulations:  2000,
		MaxSimulations:      10000,
		HistogramBins:       20,
		Seed:                11,
		EnableMermaidCharts: true,
	}
}

func connect(t *testing.T, cfg *config.AppConfig) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	store, err := configstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := NewServer(cfg, store, "test")
	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	serverSession, err := srv.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func call(t *testing.T, session *sdk.ClientSession, name string, args map[string]any) (*sdk.CallToolResult, string) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return res, text.Text
}

func profitArgs() map[string]any {
	return map[string]any{
		"variables": map[string]any{
			"Revenue": map[string]any{"type": "Triangular", "params": map[string]any{"lower": 80, "mode": 100, "upper": 140}},
			"Cost":    map[string]any{"type": "Normal", "params": map[string]any{"mean": 60, "std": 5}},
		},
		"formula":          "Revenue - Cost",
		"formula_name":     "Profit",
		"target_value":     30,
		"target_direction": "greater_than",
	}
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, testConfig())
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"run_simulation", "analyze_sensitivity", "validate_formula",
		"save_configuration", "update_configuration", "load_configuration",
		"list_configurations", "delete_configuration", "run_configuration",
	}, names)
}

func TestServer_RunSimulation(t *testing.T) {
	session := connect(t, testConfig())
	res, text := call(t, session, "run_simulation", profitArgs())
	require.False(t, res.IsError, text)

	var out runResponse
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, 2000, out.Simulations, "default simulations apply")
	assert.Equal(t, 2000, out.Summary.Count)
	assert.True(t, strings.HasPrefix(out.Summary.ProbabilityText, "P(Profit > 30) = "), out.Summary.ProbabilityText)

	require.Len(t, res.Content, 2, "mermaid chart expected")
	chart := res.Content[1].(*sdk.TextContent).Text
	assert.Contains(t, chart, "xychart-beta")
}

func TestServer_RunSimulation_CoreErrorIsToolError(t *testing.T) {
	session := connect(t, testConfig())
	args := profitArgs()
	args["formula"] = "Revenue - Tax"

	res, text := call(t, session, "run_simulation", args)
	assert.True(t, res.IsError)
	assert.Contains(t, text, "Tax")
}

func TestServer_AnalyzeSensitivity(t *testing.T) {
	session := connect(t, testConfig())
	args := profitArgs()
	args["weights"] = map[string]any{"Revenue": 1.1}
	args["seed"] = 5

	res, text := call(t, session, "analyze_sensitivity", args)
	require.False(t, res.IsError, text)

	var out sensitivityResponse
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Impacts, 2)
	// Go maps marshal with sorted keys, so Cost arrives first.
	assert.Equal(t, "Cost", out.Impacts[0].Variable)
	assert.Equal(t, "Revenue", out.Impacts[1].Variable)
	assert.InDelta(t, 100, out.Impacts[0].Impact+out.Impacts[1].Impact, 1e-9)
	assert.Greater(t, out.Impacts[1].Impact, out.Impacts[0].Impact)
	assert.Equal(t, 1.0, out.Impacts[0].Weight)
	assert.Equal(t, 1.1, out.Impacts[1].Weight)
	assert.Greater(t, out.Weighted.Mean, out.Base.Mean)
	assert.Len(t, res.Content, 3, "impact and comparison charts expected")
}

func TestServer_ValidateFormula(t *testing.T) {
	session := connect(t, testConfig())

	_, text := call(t, session, "validate_formula", map[string]any{"formula": "A + B * 2", "variables": []string{"A"}})
	var check formulaCheck
	require.NoError(t, json.Unmarshal([]byte(text), &check))
	assert.False(t, check.Valid)
	assert.Equal(t, []string{"B"}, check.Undefined)
	assert.Equal(t, []string{"A", "B"}, check.Identifiers)

	_, text = call(t, session, "validate_formula", map[string]any{"formula": "A +"})
	check = formulaCheck{}
	require.NoError(t, json.Unmarshal([]byte(text), &check))
	assert.False(t, check.Valid)
	assert.NotNil(t, check.Position)
}

func TestServer_ConfigurationLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.EnableMermaidCharts = false
	session := connect(t, cfg)

	body := profitArgs()
	body["n_simulations"] = 500

	res, text := call(t, session, "save_configuration", map[string]any{"name": "Baseline", "config": body})
	require.False(t, res.IsError, text)
	var saved struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &saved))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, 1, saved.Version)

	_, text = call(t, session, "list_configurations", map[string]any{})
	assert.Contains(t, text, saved.ID)

	body["formula"] = "Revenue - Cost * 1.1"
	res, text = call(t, session, "update_configuration", map[string]any{"id": saved.ID, "config": body})
	require.False(t, res.IsError, text)
	assert.Contains(t, text, `"version": 2`)

	res, text = call(t, session, "run_configuration", map[string]any{"id": saved.ID})
	require.False(t, res.IsError, text)
	var run runResponse
	require.NoError(t, json.Unmarshal([]byte(text), &run))
	assert.Equal(t, 500, run.Simulations)
	assert.Equal(t, "Revenue - Cost * 1.1", run.Formula)
	assert.Len(t, res.Content, 1, "charts disabled")

	res, text = call(t, session, "run_configuration", map[string]any{"id": saved.ID, "sensitivity": true})
	require.False(t, res.IsError, text)
	assert.Contains(t, text, "impact_percent")

	res, _ = call(t, session, "delete_configuration", map[string]any{"id": saved.ID})
	require.False(t, res.IsError)

	res, text = call(t, session, "load_configuration", map[string]any{"id": saved.ID})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "not found")
}
