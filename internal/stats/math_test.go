package stats

import (
	"errors"
	"math"
	"testing"
)

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{5, 5.95},
		{95, 95.05},
		{50, 50.5},
		{0, 1},
		{100, 100},
	}
	for _, tt := range tests {
		if got := Percentile(values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(1..100, %v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestVariance_Population(t *testing.T) {
	if got := Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}); got != 4 {
		t.Errorf("Variance() = %v, want 4", got)
	}
	if got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); got != 2 {
		t.Errorf("StdDev() = %v, want 2", got)
	}
}

func TestSummarize_TargetProbability(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 5}, 3, GreaterThan, "Profit")
	if err != nil {
		t.Fatal(err)
	}
	if s.Probability != 40 {
		t.Errorf("Probability = %v, want 40", s.Probability)
	}
	if s.ProbabilityText != "P(Profit > 3) = 40.0%" {
		t.Errorf("ProbabilityText = %q", s.ProbabilityText)
	}
	if s.Mean != 3 || s.Median != 3 || s.Min != 1 || s.Max != 5 {
		t.Errorf("unexpected summary: %+v", s)
	}

	s, err = Summarize([]float64{1, 2, 3, 4, 5}, 3, LessThan, "Profit")
	if err != nil {
		t.Fatal(err)
	}
	if s.Probability != 40 {
		t.Errorf("LessThan Probability = %v, want 40 (equal values count toward neither side)", s.Probability)
	}
	if s.ProbabilityText != "P(Profit < 3) = 40.0%" {
		t.Errorf("ProbabilityText = %q", s.ProbabilityText)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if _, err := Summarize(nil, 0, GreaterThan, "x"); !errors.Is(err, ErrEmptyResultSet) {
		t.Errorf("expected ErrEmptyResultSet, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"greater_than", GreaterThan},
		{">", GreaterThan},
		{"Maggiore dell'obiettivo", GreaterThan},
		{"LT", LessThan},
		{"Minore dell'obiettivo", LessThan},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Errorf("expected error for unknown direction")
	}
}
