package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/formula"
	"montecarlo-mcp/internal/sensitivity"
	"montecarlo-mcp/internal/stats"
)

func profitRequest(n int) Request {
	return Request{
		Variables: distribution.Set{
			{Name: "Revenue", Kind: distribution.Triangular, Params: map[string]float64{"lower": 80, "mode": 100, "upper": 140}},
			{Name: "Cost", Kind: distribution.Normal, Params: map[string]float64{"mean": 60, "std": 5}},
			{Name: "Fee", Kind: distribution.Fixed, Params: map[string]float64{"value": 5}},
		},
		Formula:     "Revenue - Cost - Fee",
		FormulaName: "Profit",
		Target:      30,
		Direction:   stats.GreaterThan,
		Simulations: n,
	}
}

func TestEngine_Run(t *testing.T) {
	e := NewEngine()
	e.SetSeed(7)

	res, err := e.Run(context.Background(), profitRequest(5000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary.Count != 5000 || len(res.Values) != 5000 {
		t.Fatalf("expected 5000 results, got %d", res.Summary.Count)
	}
	// E[Revenue] = 320/3, so E[Profit] ~= 41.67.
	if math.Abs(res.Summary.Mean-41.67) > 1.5 {
		t.Errorf("Mean = %.2f, want ~41.67", res.Summary.Mean)
	}
	if res.Summary.Probability <= 0 || res.Summary.Probability >= 100 {
		t.Errorf("Probability = %v, want strictly between 0 and 100", res.Summary.Probability)
	}
	if res.Histogram.Total() != 5000 || len(res.Histogram.Bins) != stats.DefaultBins {
		t.Errorf("unexpected histogram: %d bins, %d values", len(res.Histogram.Bins), res.Histogram.Total())
	}
}

func TestEngine_SeedReproducible(t *testing.T) {
	e := NewEngine()
	e.SetSeed(99)
	first, err := e.Run(context.Background(), profitRequest(200))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Run(context.Background(), profitRequest(200))
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Values {
		if first.Values[i] != second.Values[i] {
			t.Fatalf("values differ at %d with a fixed seed", i)
		}
	}
}

func TestEngine_ClockSeedIsReported(t *testing.T) {
	first, err := NewEngine().Run(context.Background(), profitRequest(300))
	if err != nil {
		t.Fatal(err)
	}
	if first.Seed == 0 {
		t.Fatal("clock-seeded run must report the seed it used")
	}

	again, err := NewEngine().Seeded(first.Seed).Run(context.Background(), profitRequest(300))
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Values {
		if first.Values[i] != again.Values[i] {
			t.Fatalf("values differ at %d when rerun with reported seed %d", i, first.Seed)
		}
	}

	sens, err := NewEngine().RunSensitivity(context.Background(), profitRequest(300), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sens.Seed == 0 {
		t.Error("clock-seeded sensitivity run must report the seed it used")
	}
}

func TestEngine_RejectsRequests(t *testing.T) {
	e := NewEngine(WithMaxSimulations(1000))

	tests := []struct {
		name   string
		mutate func(*Request)
		target error
	}{
		{"NoVariables", func(r *Request) { r.Variables = nil }, ErrInvalidRequest},
		{"ZeroSimulations", func(r *Request) { r.Simulations = 0 }, ErrInvalidRequest},
		{"TooManySimulations", func(r *Request) { r.Simulations = 1001 }, ErrInvalidRequest},
		{"BadDirection", func(r *Request) { r.Direction = "sideways" }, ErrInvalidRequest},
		{"UndefinedVariable", func(r *Request) { r.Formula = "Revenue - Tax" }, formula.ErrUndefinedVariable},
		{"SyntaxError", func(r *Request) { r.Formula = "Revenue -" }, formula.ErrSyntax},
		{"BadParameters", func(r *Request) { r.Variables[1].Params["std"] = -1 }, distribution.ErrInvalidParameters},
		{"OverflowingRange", func(r *Request) {
			r.Variables[0] = distribution.Spec{Name: "Revenue", Kind: distribution.Uniform, Params: map[string]float64{"min": -1e308, "max": 1e308}}
		}, distribution.ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := profitRequest(100)
			tt.mutate(&req)
			if _, err := e.Run(context.Background(), req); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestEngine_RunSensitivity(t *testing.T) {
	e := NewEngine(WithBins(20))
	e.SetSeed(3)

	res, err := e.RunSensitivity(context.Background(), profitRequest(4000), map[string]float64{"Revenue": 1.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Report.Impacts["Fee"] != 0 {
		t.Errorf("impact of a fixed input = %v, want 0", res.Report.Impacts["Fee"])
	}
	// Revenue (var ~= 155.6) dominates Cost (var 25).
	if res.Report.Impacts["Revenue"] <= res.Report.Impacts["Cost"] {
		t.Errorf("expected Revenue to dominate: %v", res.Report.Impacts)
	}
	if res.Weighted.Mean <= res.Base.Mean {
		t.Errorf("weighting revenue up should raise the mean: base %.2f, weighted %.2f", res.Base.Mean, res.Weighted.Mean)
	}
	if res.Weights["Cost"] != sensitivity.DefaultWeight {
		t.Errorf("expected default weight for Cost, got %v", res.Weights["Cost"])
	}
	if res.BaseHistogram.Min != res.WeightedHistogram.Min || res.BaseHistogram.Max != res.WeightedHistogram.Max {
		t.Errorf("histograms must share a bin range")
	}
	if len(res.BaseHistogram.Bins) != 20 {
		t.Errorf("expected 20 bins, got %d", len(res.BaseHistogram.Bins))
	}
}

func TestEngine_RunSensitivity_Degenerate(t *testing.T) {
	req := Request{
		Variables: distribution.Set{
			{Name: "A", Kind: distribution.Fixed, Params: map[string]float64{"value": 2}},
		},
		Formula:     "A * 2",
		Direction:   stats.LessThan,
		Simulations: 10,
	}
	if _, err := NewEngine().RunSensitivity(context.Background(), req, nil); !errors.Is(err, sensitivity.ErrDegenerateBaseVariance) {
		t.Errorf("expected ErrDegenerateBaseVariance, got %v", err)
	}
}
