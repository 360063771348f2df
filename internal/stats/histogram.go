package stats

import "math"

// DefaultBins is the bin count used when callers pass bins <= 0.
const DefaultBins = 50

// Bin is one equal-width interval. The last bin of a histogram is closed on
// both ends so the maximum value is counted.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is an equal-width frequency table over [Min, Max].
type Histogram struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Width float64 `json:"width"`
	Bins  []Bin   `json:"bins"`
}

// NewHistogram bins values over their own range.
func NewHistogram(values []float64, bins int) *Histogram {
	if len(values) == 0 {
		return NewHistogramRange(nil, bins, 0, 0)
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return NewHistogramRange(values, bins, lo, hi)
}

// NewHistogramRange bins values over [lo, hi]. Values outside the range are
// dropped. Several series binned over the same range can be compared bin by
// bin. When lo == hi every value lands in a single bin.
func NewHistogramRange(values []float64, bins int, lo, hi float64) *Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		h := &Histogram{Min: lo, Max: hi, Bins: []Bin{{Lower: lo, Upper: hi}}}
		for _, v := range values {
			if v == lo {
				h.Bins[0].Count++
			}
		}
		return h
	}

	width := (hi - lo) / float64(bins)
	h := &Histogram{Min: lo, Max: hi, Width: width, Bins: make([]Bin, bins)}
	for i := range h.Bins {
		h.Bins[i].Lower = lo + float64(i)*width
		h.Bins[i].Upper = lo + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = hi

	for _, v := range values {
		if v < lo || v > hi || math.IsNaN(v) {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h
}

// Counts returns the per-bin counts.
func (h *Histogram) Counts() []int {
	out := make([]int, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = b.Count
	}
	return out
}

// Total returns the number of binned values.
func (h *Histogram) Total() int {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	return total
}
