package simulation

import (
	"math"

	"montecarlo-mcp/internal/stats"
)

// sharedHistograms bins two series over their combined range so the base and
// weighted distributions can be overlaid bin by bin.
func sharedHistograms(base, weighted []float64, bins int) (*stats.Histogram, *stats.Histogram) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, series := range [][]float64{base, weighted} {
		for _, v := range series {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 0
	}
	return stats.NewHistogramRange(base, bins, lo, hi), stats.NewHistogramRange(weighted, bins, lo, hi)
}
