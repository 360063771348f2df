// Package model defines saved simulation configurations, their validation
// and their file encodings.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/formula"
	"montecarlo-mcp/internal/simulation"
	"montecarlo-mcp/internal/stats"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfiguration is returned when a configuration fails validation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Configuration is everything needed to repeat a run.
type Configuration struct {
	Variables       distribution.Set `json:"variables" yaml:"variables" validate:"required,min=1"`
	FormulaName     string           `json:"formula_name" yaml:"formula_name" validate:"max=100"`
	Formula         string           `json:"formula" yaml:"formula" validate:"required,max=4096"`
	TargetValue     float64          `json:"target_value" yaml:"target_value"`
	TargetDirection stats.Direction  `json:"target_direction" yaml:"target_direction" validate:"required,oneof=greater_than less_than"`
	Simulations     int              `json:"n_simulations" yaml:"n_simulations" validate:"gte=1"`
}

// Record is a stored configuration with its metadata.
type Record struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string        `json:"name" yaml:"name" validate:"required,max=200"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
	Config      Configuration `json:"config" yaml:"config"`
	CreatedAt   time.Time     `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	Version     int           `json:"version,omitempty" yaml:"version,omitempty"`
}

// Summary is the listing view of a Record.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// Summary returns the listing view of r.
func (r *Record) Summary() Summary {
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

// Validate checks struct constraints, every variable spec, and that the
// formula compiles and only references declared variables.
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	if err := c.Variables.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	expr, err := formula.Compile(c.Formula)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	for _, name := range expr.Identifiers() {
		if _, ok := c.Variables.Get(name); !ok {
			return fmt.Errorf("%w: %w", ErrInvalidConfiguration, &formula.UndefinedVariableError{Name: name})
		}
	}
	return nil
}

// Validate checks the record metadata and its configuration.
func (r *Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return describe(err)
	}
	return r.Config.Validate()
}

// Request converts c into a simulation request.
func (c *Configuration) Request() simulation.Request {
	return simulation.Request{
		Variables:   c.Variables,
		Formula:     c.Formula,
		FormulaName: c.FormulaName,
		Target:      c.TargetValue,
		Direction:   c.TargetDirection,
		Simulations: c.Simulations,
	}
}

// describe turns validator field errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s long", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}
