package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/formula"
	"montecarlo-mcp/internal/sensitivity"
	"montecarlo-mcp/internal/stats"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSimulations    = 10000
	DefaultMaxSimulations = 100000
)

// ErrInvalidRequest is returned for requests rejected before sampling.
var ErrInvalidRequest = errors.New("invalid simulation request")

// Request describes one Monte Carlo run.
type Request struct {
	Variables   distribution.Set `json:"variables"`
	Formula     string           `json:"formula"`
	FormulaName string           `json:"formula_name,omitempty"`
	Target      float64          `json:"target_value"`
	Direction   stats.Direction  `json:"target_direction"`
	Simulations int              `json:"n_simulations"`
}

// Result is the outcome of a plain run.
type Result struct {
	FormulaName string           `json:"formula_name"`
	Formula     string           `json:"formula"`
	Seed        int64            `json:"seed,omitempty"`
	Summary     stats.Summary    `json:"summary"`
	Histogram   *stats.Histogram `json:"histogram"`
	// Values is the raw result series. Omitted from JSON output.
	Values  []float64              `json:"-"`
	Samples distribution.SampleSet `json:"-"`
}

// SensitivityResult is the outcome of a run with variance attribution and
// what-if weights.
type SensitivityResult struct {
	FormulaName       string              `json:"formula_name"`
	Formula           string              `json:"formula"`
	Seed              int64               `json:"seed,omitempty"`
	Report            *sensitivity.Report `json:"sensitivity"`
	Weights           map[string]float64  `json:"weights"`
	Base              stats.Summary       `json:"base"`
	Weighted          stats.Summary       `json:"weighted"`
	BaseHistogram     *stats.Histogram    `json:"base_histogram"`
	WeightedHistogram *stats.Histogram    `json:"weighted_histogram"`
}

// Engine runs the sample, evaluate, summarize pipeline.
type Engine struct {
	seed           int64
	maxSimulations int
	bins           int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSimulations caps Request.Simulations.
func WithMaxSimulations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSimulations = n
		}
	}
}

// WithBins sets the histogram bin count.
func WithBins(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bins = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxSimulations: DefaultMaxSimulations,
		bins:           stats.DefaultBins,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSeed fixes the random seed for subsequent runs. 0 restores clock seeding.
func (e *Engine) SetSeed(seed int64) {
	e.seed = seed
}

// Seeded returns a copy of e using seed, leaving e untouched. Concurrent
// callers use it instead of SetSeed on a shared engine.
func (e *Engine) Seeded(seed int64) *Engine {
	cp := *e
	cp.seed = seed
	return &cp
}

// MaxSimulations returns the configured cap.
func (e *Engine) MaxSimulations() int {
	return e.maxSimulations
}

func (e *Engine) validate(req Request) (*formula.Expression, error) {
	if len(req.Variables) == 0 {
		return nil, fmt.Errorf("%w: at least one variable is required", ErrInvalidRequest)
	}
	if req.Simulations < 1 || req.Simulations > e.maxSimulations {
		return nil, fmt.Errorf("%w: n_simulations must be between 1 and %d, got %d", ErrInvalidRequest, e.maxSimulations, req.Simulations)
	}
	if req.Direction != stats.GreaterThan && req.Direction != stats.LessThan {
		return nil, fmt.Errorf("%w: unknown target direction %q", ErrInvalidRequest, req.Direction)
	}
	if err := req.Variables.Validate(); err != nil {
		return nil, err
	}
	expr, err := formula.Compile(req.Formula)
	if err != nil {
		return nil, err
	}
	for _, name := range expr.Identifiers() {
		if _, ok := req.Variables.Get(name); !ok {
			return nil, &formula.UndefinedVariableError{Name: name}
		}
	}
	return expr, nil
}

// sample draws the inputs and returns the seed actually used, so clock-seeded
// runs can be repeated.
func (e *Engine) sample(ctx context.Context, req Request) (distribution.SampleSet, int64, error) {
	seed := e.seed
	for seed == 0 {
		seed = time.Now().UnixNano()
	}
	start := time.Now()
	samples, err := distribution.SampleAll(ctx, req.Variables, req.Simulations, seed)
	if err != nil {
		return nil, 0, err
	}
	log.Debug().
		Int("variables", len(req.Variables)).
		Int("n", req.Simulations).
		Int64("seed", seed).
		Dur("elapsed", time.Since(start)).
		Msg("Sampled inputs")
	return samples, seed, nil
}

// Run validates req, samples every variable, evaluates the formula and
// summarizes the result against the target.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	expr, err := e.validate(req)
	if err != nil {
		return nil, err
	}
	samples, seed, err := e.sample(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	values, err := expr.Eval(samples)
	if err != nil {
		return nil, err
	}
	summary, err := stats.Summarize(values, req.Target, req.Direction, req.FormulaName)
	if err != nil {
		return nil, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("Evaluated formula")

	return &Result{
		FormulaName: req.FormulaName,
		Formula:     expr.Source(),
		Seed:        seed,
		Summary:     summary,
		Histogram:   stats.NewHistogram(values, e.bins),
		Values:      values,
		Samples:     samples,
	}, nil
}

// RunSensitivity draws one sample set and reuses it for the variance
// attribution, the base summary and the weighted summary.
func (e *Engine) RunSensitivity(ctx context.Context, req Request, weights map[string]float64) (*SensitivityResult, error) {
	if _, err := e.validate(req); err != nil {
		return nil, err
	}
	samples, seed, err := e.sample(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analysis, err := sensitivity.Analyze(ctx, req.Variables, samples, req.Formula, weights)
	if err != nil {
		return nil, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("weights", len(weights)).Msg("Analyzed sensitivity")

	base, err := stats.Summarize(analysis.Base, req.Target, req.Direction, req.FormulaName)
	if err != nil {
		return nil, err
	}
	weighted, err := stats.Summarize(analysis.Weighted, req.Target, req.Direction, req.FormulaName)
	if err != nil {
		return nil, err
	}
	baseHist, weightedHist := sharedHistograms(analysis.Base, analysis.Weighted, e.bins)

	return &SensitivityResult{
		FormulaName:       req.FormulaName,
		Formula:           req.Formula,
		Seed:              seed,
		Report:            analysis.Report,
		Weights:           analysis.Weights,
		Base:              base,
		Weighted:          weighted,
		BaseHistogram:     baseHist,
		WeightedHistogram: weightedHist,
	}, nil
}
