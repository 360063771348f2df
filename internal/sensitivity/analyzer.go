// Package sensitivity attributes output variance to input variables by mean
// substitution and applies what-if weights to sampled inputs.
package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/formula"
	"montecarlo-mcp/internal/stats"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrDegenerateBaseVariance is returned when the unperturbed result has no variance.
	ErrDegenerateBaseVariance = errors.New("degenerate base variance")
	// ErrInvalidWeight is returned for weights that are non-finite or name unknown variables.
	ErrInvalidWeight = errors.New("invalid weight")
)

// DefaultWeight leaves a variable's samples unchanged.
const DefaultWeight = 1.0

// Report is the normalized variance contribution of each variable.
type Report struct {
	// Order lists variables in the order they were analyzed.
	Order []string `json:"order"`
	// Impacts are percentages summing to 100, or all 0 when the raw sum is not positive.
	Impacts map[string]float64 `json:"impacts"`
	// Raw holds 1 - var(test)/var(base) per variable before normalization.
	Raw          map[string]float64 `json:"raw"`
	BaseVariance float64            `json:"base_variance"`
	// Degenerate is set when the raw impacts summed to <= 0 and were zeroed.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Impacts decomposes the variance of expr over samples. For each name in
// order, that variable's sequence is replaced by a constant sequence at its
// sample mean while every other variable keeps its draws; the fraction of
// base variance that disappears is the variable's raw impact.
func Impacts(ctx context.Context, expr *formula.Expression, samples distribution.SampleSet, order []string) (*Report, error) {
	base, err := expr.Eval(samples)
	if err != nil {
		return nil, err
	}
	return impacts(ctx, expr, samples, base, order)
}

// impacts is Impacts over an already evaluated base series.
func impacts(ctx context.Context, expr *formula.Expression, samples distribution.SampleSet, base []float64, order []string) (*Report, error) {
	baseVar := stats.Variance(base)
	if !(baseVar > 0) {
		return nil, fmt.Errorf("%w: formula %q has zero variance over the sampled inputs", ErrDegenerateBaseVariance, expr.Source())
	}

	for _, name := range order {
		if _, ok := samples[name]; !ok {
			return nil, &formula.UndefinedVariableError{Name: name}
		}
	}

	raw := make([]float64, len(order))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range order {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			test, err := expr.Eval(withMean(samples, name))
			if err != nil {
				return fmt.Errorf("holding %s at its mean: %w", name, err)
			}
			raw[i] = 1 - stats.Variance(test)/baseVar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Order:        append([]string(nil), order...),
		Impacts:      make(map[string]float64, len(order)),
		Raw:          make(map[string]float64, len(order)),
		BaseVariance: baseVar,
	}
	total := 0.0
	for i, name := range order {
		report.Raw[name] = raw[i]
		total += raw[i]
	}
	for i, name := range order {
		if total > 0 {
			report.Impacts[name] = raw[i] / total * 100
		} else {
			report.Impacts[name] = 0
		}
	}
	report.Degenerate = !(total > 0)
	return report, nil
}

// withMean returns a shallow copy of samples with name replaced by a
// constant sequence at its mean. Other sequences are shared, not copied.
func withMean(samples distribution.SampleSet, name string) distribution.SampleSet {
	out := make(distribution.SampleSet, len(samples))
	for k, v := range samples {
		out[k] = v
	}
	values := samples[name]
	mean := stats.Mean(values)
	constant := make([]float64, len(values))
	for i := range constant {
		constant[i] = mean
	}
	out[name] = constant
	return out
}

// ApplyWeights scales every sampled value of each variable by its weight.
// Variables without a weight keep DefaultWeight. A weight of exactly 1 shares
// the original sequence, so unit weights reproduce the base result exactly.
func ApplyWeights(samples distribution.SampleSet, weights map[string]float64) (distribution.SampleSet, error) {
	for name, w := range weights {
		if _, ok := samples[name]; !ok {
			return nil, fmt.Errorf("%w: no variable named %q", ErrInvalidWeight, name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight for %s must be finite", ErrInvalidWeight, name)
		}
	}

	out := make(distribution.SampleSet, len(samples))
	for name, values := range samples {
		w, ok := weights[name]
		if !ok || w == DefaultWeight {
			out[name] = values
			continue
		}
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = v * w
		}
		out[name] = scaled
	}
	return out, nil
}

// Analysis bundles the outputs of a full sensitivity run.
type Analysis struct {
	Report   *Report
	Base     []float64
	Weighted []float64
	Weights  map[string]float64
}

// Analyze validates the variable set, computes per-variable impacts over
// samples and evaluates the what-if weighted result alongside the base one.
func Analyze(ctx context.Context, set distribution.Set, samples distribution.SampleSet, src string, weights map[string]float64) (*Analysis, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	expr, err := formula.Compile(src)
	if err != nil {
		return nil, err
	}

	base, err := expr.Eval(samples)
	if err != nil {
		return nil, err
	}
	report, err := impacts(ctx, expr, samples, base, set.Names())
	if err != nil {
		return nil, err
	}

	weighted := base
	effective := make(map[string]float64, len(set))
	for _, name := range set.Names() {
		effective[name] = DefaultWeight
	}
	for name, w := range weights {
		effective[name] = w
	}
	if len(weights) > 0 {
		scaled, err := ApplyWeights(samples, weights)
		if err != nil {
			return nil, err
		}
		if weighted, err = expr.Eval(scaled); err != nil {
			return nil, fmt.Errorf("weighted evaluation: %w", err)
		}
	}

	return &Analysis{
		Report:   report,
		Base:     base,
		Weighted: weighted,
		Weights:  effective,
	}, nil
}
