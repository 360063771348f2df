package stats

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrEmptyResultSet is returned when summarizing an empty series.
var ErrEmptyResultSet = errors.New("empty result set")

// Direction selects which side of the target a simulated outcome must fall on.
type Direction string

const (
	GreaterThan Direction = "greater_than"
	LessThan    Direction = "less_than"
)

// ParseDirection accepts the canonical names, short forms and operators, and
// the Italian labels found in older saved configurations.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greater_than", "greaterthan", "greater", "gt", ">", "maggiore dell'obiettivo":
		return GreaterThan, nil
	case "less_than", "lessthan", "less", "lt", "<", "minore dell'obiettivo":
		return LessThan, nil
	}
	return "", fmt.Errorf("unknown target direction %q (use greater_than or less_than)", s)
}

// UnmarshalText lets persisted labels decode into the canonical form. Unknown
// values are kept so validation can report them.
func (d *Direction) UnmarshalText(text []byte) error {
	if parsed, err := ParseDirection(string(text)); err == nil {
		*d = parsed
		return nil
	}
	*d = Direction(text)
	return nil
}

// Symbol returns the comparison operator.
func (d Direction) Symbol() string {
	if d == LessThan {
		return "<"
	}
	return ">"
}

// Satisfies reports whether v lies strictly on the direction's side of target.
// Values equal to the target count toward neither side.
func (d Direction) Satisfies(v, target float64) bool {
	if d == LessThan {
		return v < target
	}
	return v > target
}

// Summary holds descriptive statistics of a result series and the
// probability of meeting the target.
type Summary struct {
	Count           int       `json:"count"`
	Mean            float64   `json:"mean"`
	Median          float64   `json:"median"`
	Std             float64   `json:"std"`
	Min             float64   `json:"min"`
	Max             float64   `json:"max"`
	P5              float64   `json:"percentile_5"`
	P95             float64   `json:"percentile_95"`
	Target          float64   `json:"target"`
	Direction       Direction `json:"direction"`
	Probability     float64   `json:"probability"` // percent, 0-100
	ProbabilityText string    `json:"probability_text"`
}

// Summarize computes the Summary of result against target.
func Summarize(result []float64, target float64, direction Direction, label string) (Summary, error) {
	if len(result) == 0 {
		return Summary{}, ErrEmptyResultSet
	}
	if direction != GreaterThan && direction != LessThan {
		return Summary{}, fmt.Errorf("unknown target direction %q", direction)
	}

	sorted := slices.Clone(result)
	slices.Sort(sorted)

	hits := 0
	for _, v := range result {
		if direction.Satisfies(v, target) {
			hits++
		}
	}
	n := len(result)
	prob := float64(hits) / float64(n) * 100

	return Summary{
		Count:           n,
		Mean:            Mean(result),
		Median:          Percentile(sorted, 50),
		Std:             StdDev(result),
		Min:             sorted[0],
		Max:             sorted[n-1],
		P5:              Percentile(sorted, 5),
		P95:             Percentile(sorted, 95),
		Target:          target,
		Direction:       direction,
		Probability:     prob,
		ProbabilityText: ProbabilityText(label, direction, target, prob),
	}, nil
}

// ProbabilityText renders e.g. "P(Profit > 3) = 40.0%".
func ProbabilityText(label string, direction Direction, target, probability float64) string {
	if label == "" {
		label = "Result"
	}
	return fmt.Sprintf("P(%s %s %s) = %.1f%%", label, direction.Symbol(), strconv.FormatFloat(target, 'f', -1, 64), probability)
}
