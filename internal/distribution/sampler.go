package distribution

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// SampleSet maps each variable name to its draws. All sequences share one length.
type SampleSet map[string][]float64

// Len returns the common sequence length, or 0 for an empty set.
func (s SampleSet) Len() int {
	for _, v := range s {
		return len(v)
	}
	return 0
}

// Sampler draws values for variable specs.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with seed, or from the clock when seed is 0.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample validates spec and returns n draws from its distribution.
func (s *Sampler) Sample(spec Spec, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample count must be >= 1 (got %d)", ErrInvalidParameters, n)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	p := spec.Params

	switch spec.Kind {
	case Fixed:
		for i := range out {
			out[i] = p["value"]
		}
		return out, nil
	case Triangular:
		for i := range out {
			out[i] = triangular(s.rng.Float64(), p["lower"], p["mode"], p["upper"])
		}
	case Normal:
		for i := range out {
			out[i] = p["mean"] + p["std"]*s.rng.NormFloat64()
		}
	case Uniform:
		lo, hi := p["min"], p["max"]
		for i := range out {
			out[i] = lo + (hi-lo)*s.rng.Float64()
		}
	}

	if spec.Round {
		// Keep rounded draws inside the support: [0.5, 9.5] rounds into [1, 9].
		lo, hi, bounded := spec.Bounds()
		lo, hi = math.Ceil(lo), math.Floor(hi)
		for i, v := range out {
			v = math.Round(v)
			if bounded {
				v = math.Min(math.Max(v, lo), hi)
			}
			out[i] = v
		}
	}
	return out, nil
}

// triangular maps a uniform draw u in [0, 1) through the inverse CDF.
func triangular(u, lower, mode, upper float64) float64 {
	width := upper - lower
	if width == 0 {
		return lower
	}
	split := (mode - lower) / width
	var v float64
	if u < split {
		v = lower + math.Sqrt(u*width*(mode-lower))
	} else {
		v = upper - math.Sqrt((1-u)*width*(upper-mode))
	}
	// Guard against rounding drift past the support.
	return math.Min(math.Max(v, lower), upper)
}

// SampleAll draws n values for every variable in set. Each variable gets its
// own random stream derived from seed and its position in the set, so a
// non-zero seed reproduces the same SampleSet regardless of scheduling.
func SampleAll(ctx context.Context, set Set, n int, seed int64) (SampleSet, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: sample count must be >= 1 (got %d)", ErrInvalidParameters, n)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	draws := make([][]float64, len(set))
	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range set {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values, err := NewSampler(streamSeed(seed, i)).Sample(spec, n)
			if err != nil {
				return err
			}
			draws[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := make(SampleSet, len(set))
	for i, spec := range set {
		samples[spec.Name] = draws[i]
	}
	return samples, nil
}

// streamSeed spreads consecutive indices over the seed space (splitmix64 step).
func streamSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return int64(z)
}
