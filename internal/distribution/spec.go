package distribution

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrUnknownKind is returned for a distribution kind outside the supported set.
	ErrUnknownKind = errors.New("unknown distribution kind")
	// ErrInvalidParameters is returned when a spec fails validation.
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Kind identifies the distribution that governs a variable.
type Kind string

const (
	Triangular Kind = "Triangular"
	Normal     Kind = "Normal"
	Uniform    Kind = "Uniform"
	Fixed      Kind = "Fixed"
)

// Kinds lists the supported kinds in display order.
var Kinds = []Kind{Triangular, Normal, Uniform, Fixed}

// requiredParams maps each kind to the parameter names it must carry.
var requiredParams = map[Kind][]string{
	Triangular: {"lower", "mode", "upper"},
	Normal:     {"mean", "std"},
	Uniform:    {"min", "max"},
	Fixed:      {"value"},
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// RequiredParams returns the parameter names a kind needs.
func (k Kind) RequiredParams() []string {
	return slices.Clone(requiredParams[k])
}

// Spec describes one named random input.
type Spec struct {
	Name   string             `json:"-" yaml:"-"`
	Kind   Kind               `json:"type" yaml:"type"`
	Params map[string]float64 `json:"params" yaml:"params"`
	// Round rounds every draw to the nearest integer. Fixed values are never rounded.
	Round bool `json:"round,omitempty" yaml:"round,omitempty"`
}

// IsIdentifier reports whether name is usable inside a formula.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Validate checks the name, kind and parameter invariants of the spec.
func (s Spec) Validate() error {
	if !IsIdentifier(s.Name) {
		return fmt.Errorf("%w: variable name %q is not a valid identifier", ErrInvalidParameters, s.Name)
	}

	required, ok := requiredParams[s.Kind]
	if !ok {
		return fmt.Errorf("variable %s: %w: %q", s.Name, ErrUnknownKind, s.Kind)
	}

	for _, p := range required {
		v, ok := s.Params[p]
		if !ok {
			return fmt.Errorf("%w: variable %s (%s) is missing parameter %q", ErrInvalidParameters, s.Name, s.Kind, p)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: variable %s parameter %q must be finite", ErrInvalidParameters, s.Name, p)
		}
	}
	for p := range s.Params {
		if !slices.Contains(required, p) {
			return fmt.Errorf("%w: variable %s (%s) does not accept parameter %q", ErrInvalidParameters, s.Name, s.Kind, p)
		}
	}

	p := s.Params
	switch s.Kind {
	case Triangular:
		if p["lower"] > p["mode"] || p["mode"] > p["upper"] {
			return fmt.Errorf("%w: variable %s requires lower <= mode <= upper (got %g, %g, %g)",
				ErrInvalidParameters, s.Name, p["lower"], p["mode"], p["upper"])
		}
	case Normal:
		if p["std"] <= 0 {
			return fmt.Errorf("%w: variable %s requires std > 0 (got %g)", ErrInvalidParameters, s.Name, p["std"])
		}
	case Uniform:
		if p["min"] > p["max"] {
			return fmt.Errorf("%w: variable %s requires min <= max (got %g, %g)", ErrInvalidParameters, s.Name, p["min"], p["max"])
		}
	}
	if !s.representable() {
		return fmt.Errorf("%w: variable %s (%s) parameters overflow float64 when sampled", ErrInvalidParameters, s.Name, s.Kind)
	}
	if s.Round && s.Kind != Fixed {
		if lo, hi, ok := s.Bounds(); ok && math.Ceil(lo) > math.Floor(hi) {
			return fmt.Errorf("%w: variable %s is rounded but [%g, %g] contains no integer", ErrInvalidParameters, s.Name, lo, hi)
		}
	}
	return nil
}

// normalReach is how many standard deviations from the mean a Normal draw
// must stay representable at.
const normalReach = 10

// representable reports whether the arithmetic used to sample s stays finite.
func (s Spec) representable() bool {
	p := s.Params
	switch s.Kind {
	case Triangular:
		return finite(p["upper"]-p["lower"], s.Mean())
	case Normal:
		return finite(p["mean"]+normalReach*p["std"], p["mean"]-normalReach*p["std"])
	case Uniform:
		return finite(p["max"]-p["min"], s.Mean())
	}
	return true
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Mean returns the analytical mean of the distribution.
func (s Spec) Mean() float64 {
	p := s.Params
	switch s.Kind {
	case Triangular:
		return (p["lower"] + p["mode"] + p["upper"]) / 3
	case Normal:
		return p["mean"]
	case Uniform:
		return (p["min"] + p["max"]) / 2
	default:
		return p["value"]
	}
}

// Bounds returns the closed support of bounded kinds. ok is false for Normal.
func (s Spec) Bounds() (lo, hi float64, ok bool) {
	p := s.Params
	switch s.Kind {
	case Triangular:
		return p["lower"], p["upper"], true
	case Uniform:
		return p["min"], p["max"], true
	case Fixed:
		return p["value"], p["value"], true
	default:
		return math.Inf(-1), math.Inf(1), false
	}
}

// UnmarshalText normalizes known kind names. Unknown names are kept as-is and
// rejected later by Validate so that decoding never hides the offending value.
func (k *Kind) UnmarshalText(text []byte) error {
	if parsed, err := ParseKind(string(text)); err == nil {
		*k = parsed
		return nil
	}
	*k = Kind(text)
	return nil
}
