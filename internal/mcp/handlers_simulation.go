package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/formula"
	"montecarlo-mcp/internal/simulation"
	"montecarlo-mcp/internal/stats"
	"montecarlo-mcp/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type simulationInput struct {
	Variables       distribution.Set `json:"variables"`
	Formula         string           `json:"formula"`
	FormulaName     string           `json:"formula_name,omitempty"`
	TargetValue     float64          `json:"target_value"`
	TargetDirection stats.Direction  `json:"target_direction"`
	Simulations     int              `json:"n_simulations,omitempty"`
	Seed            int64            `json:"seed,omitempty"`
}

func (in simulationInput) request() simulation.Request {
	return simulation.Request{
		Variables:   in.Variables,
		Formula:     in.Formula,
		FormulaName: in.FormulaName,
		Target:      in.TargetValue,
		Direction:   in.TargetDirection,
		Simulations: in.Simulations,
	}
}

type sensitivityInput struct {
	simulationInput
	Weights map[string]float64 `json:"weights,omitempty"`
}

type validateFormulaInput struct {
	Formula   string   `json:"formula"`
	Variables []string `json:"variables,omitempty"`
}

type runResponse struct {
	FormulaName string        `json:"formula_name,omitempty"`
	Formula     string        `json:"formula"`
	Simulations int           `json:"n_simulations"`
	Seed        int64         `json:"seed,omitempty"`
	Summary     stats.Summary `json:"summary"`
}

type impactEntry struct {
	Variable string  `json:"variable"`
	Impact   float64 `json:"impact_percent"`
	Weight   float64 `json:"weight"`
}

type sensitivityResponse struct {
	FormulaName string        `json:"formula_name,omitempty"`
	Formula     string        `json:"formula"`
	Simulations int           `json:"n_simulations"`
	Seed        int64         `json:"seed,omitempty"`
	Impacts     []impactEntry `json:"impacts"`
	Degenerate  bool          `json:"no_variance_explained,omitempty"`
	Base        stats.Summary `json:"base"`
	Weighted    stats.Summary `json:"weighted"`
}

// engineFor returns the shared engine, or a seeded copy when the call
// carries its own seed.
func (s *Server) engineFor(seed int64) *simulation.Engine {
	if seed != 0 {
		return s.engine.Seeded(seed)
	}
	return s.engine
}

func (s *Server) withDefaults(req simulation.Request) simulation.Request {
	if req.Simulations == 0 {
		req.Simulations = s.defaultSimulations
	}
	return req
}

func (s *Server) runSimulation(ctx context.Context, req simulation.Request, seed int64) (*sdk.CallToolResult, error) {
	req = s.withDefaults(req)
	res, err := s.engineFor(seed).Run(ctx, req)
	if err != nil {
		return nil, err
	}
	charts := ""
	if s.enableCharts {
		charts = visuals.HistogramChart(fmt.Sprintf("Distribution of %s", res.Summary.ProbabilityText), res.Histogram)
	}
	return textResult(runResponse{
		FormulaName: res.FormulaName,
		Formula:     res.Formula,
		Simulations: req.Simulations,
		Seed:        res.Seed,
		Summary:     res.Summary,
	}, charts)
}

func (s *Server) runSensitivity(ctx context.Context, req simulation.Request, weights map[string]float64, seed int64) (*sdk.CallToolResult, error) {
	req = s.withDefaults(req)
	res, err := s.engineFor(seed).RunSensitivity(ctx, req, weights)
	if err != nil {
		return nil, err
	}

	impacts := make([]impactEntry, len(res.Report.Order))
	for i, name := range res.Report.Order {
		impacts[i] = impactEntry{Variable: name, Impact: res.Report.Impacts[name], Weight: res.Weights[name]}
	}
	var charts []string
	if s.enableCharts {
		charts = append(charts,
			visuals.ImpactChart(res.Report),
			visuals.ComparisonChart(fmt.Sprintf("Base (bars) vs weighted (line): %s", res.Weighted.ProbabilityText), res.BaseHistogram, res.WeightedHistogram),
		)
	}
	return textResult(sensitivityResponse{
		FormulaName: res.FormulaName,
		Formula:     res.Formula,
		Simulations: req.Simulations,
		Seed:        res.Seed,
		Impacts:     impacts,
		Degenerate:  res.Report.Degenerate,
		Base:        res.Base,
		Weighted:    res.Weighted,
	}, charts...)
}

func (s *Server) handleRunSimulation(ctx context.Context, in simulationInput) (*sdk.CallToolResult, error) {
	return s.runSimulation(ctx, in.request(), in.Seed)
}

func (s *Server) handleAnalyzeSensitivity(ctx context.Context, in sensitivityInput) (*sdk.CallToolResult, error) {
	return s.runSensitivity(ctx, in.request(), in.Weights, in.Seed)
}

type formulaCheck struct {
	Valid       bool     `json:"valid"`
	Canonical   string   `json:"canonical,omitempty"`
	Identifiers []string `json:"identifiers"`
	Undefined   []string `json:"undefined,omitempty"`
	Error       string   `json:"error,omitempty"`
	Position    *int     `json:"error_position,omitempty"`
}

func (s *Server) handleValidateFormula(ctx context.Context, in validateFormulaInput) (*sdk.CallToolResult, error) {
	expr, err := formula.Compile(in.Formula)
	if err != nil {
		check := formulaCheck{Identifiers: []string{}, Error: err.Error()}
		var se *formula.SyntaxError
		if errors.As(err, &se) {
			check.Position = &se.Pos
		}
		return textResult(check)
	}

	check := formulaCheck{
		Valid:       true,
		Canonical:   expr.String(),
		Identifiers: expr.Identifiers(),
	}
	if in.Variables != nil {
		for _, name := range check.Identifiers {
			if !slices.Contains(in.Variables, name) {
				check.Undefined = append(check.Undefined, name)
			}
		}
		if len(check.Undefined) > 0 {
			check.Valid = false
			check.Error = fmt.Sprintf("undefined variables: %v", check.Undefined)
		}
	}
	return textResult(check)
}
