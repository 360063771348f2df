package formula

import (
	"fmt"
	"math"
	"slices"
)

// vec is an evaluation value: a broadcast scalar when data is nil.
type vec struct {
	scalar float64
	data   []float64
}

// Eval evaluates the expression element-wise over samples. Every sequence in
// samples must have the same length; the result has that length, or 1 when
// samples is empty. Domain failures (division by zero, 0 to a negative power,
// fractional power of a negative base, overflow) abort the evaluation with a
// NumericError rather than producing NaN or Inf.
func (e *Expression) Eval(samples map[string][]float64) ([]float64, error) {
	n, err := commonLength(samples)
	if err != nil {
		return nil, err
	}
	for _, name := range e.names {
		if _, ok := samples[name]; !ok {
			return nil, &UndefinedVariableError{Name: name}
		}
	}

	v, err := e.eval(e.root, samples, n)
	if err != nil {
		return nil, err
	}
	if v.data != nil {
		// Binary operators check their own results; identifiers and negation do not.
		for i, x := range v.data {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, &NumericError{Op: e.root.String(), Index: i, Reason: "non-finite value"}
			}
		}
		if aliasesInput(e.root) {
			return slices.Clone(v.data), nil
		}
		return v.data, nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v.scalar
	}
	return out, nil
}

// Evaluate compiles src and evaluates it over samples.
func Evaluate(src string, samples map[string][]float64) ([]float64, error) {
	expr, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return expr.Eval(samples)
}

// aliasesInput reports whether evaluating n returns a caller-owned sequence.
func aliasesInput(n node) bool {
	switch n := n.(type) {
	case *identNode:
		return true
	case *unaryNode:
		return n.op == tokPlus && aliasesInput(n.operand)
	}
	return false
}

func commonLength(samples map[string][]float64) (int, error) {
	if len(samples) == 0 {
		return 1, nil
	}
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	slices.Sort(names)

	n := len(samples[names[0]])
	for _, name := range names[1:] {
		if len(samples[name]) != n {
			return 0, fmt.Errorf("%w: %s has %d values, %s has %d", ErrLengthMismatch, names[0], n, name, len(samples[name]))
		}
	}
	return n, nil
}

func (e *Expression) eval(n node, samples map[string][]float64, size int) (vec, error) {
	switch n := n.(type) {
	case *numberNode:
		return vec{scalar: n.value}, nil
	case *identNode:
		return vec{data: samples[n.name]}, nil
	case *unaryNode:
		v, err := e.eval(n.operand, samples, size)
		if err != nil {
			return vec{}, err
		}
		if n.op == tokPlus {
			return v, nil
		}
		if v.data == nil {
			return vec{scalar: -v.scalar}, nil
		}
		out := make([]float64, len(v.data))
		for i, x := range v.data {
			out[i] = -x
		}
		return vec{data: out}, nil
	case *binaryNode:
		l, err := e.eval(n.left, samples, size)
		if err != nil {
			return vec{}, err
		}
		r, err := e.eval(n.right, samples, size)
		if err != nil {
			return vec{}, err
		}
		return applyBinary(n, l, r, size)
	}
	return vec{}, fmt.Errorf("%w: unsupported node %T", ErrSyntax, n)
}

func applyBinary(n *binaryNode, l, r vec, size int) (vec, error) {
	if l.data == nil && r.data == nil {
		v, reason := binaryOp(n.op, l.scalar, r.scalar)
		if reason != "" {
			return vec{}, &NumericError{Op: n.String(), Index: -1, Reason: reason}
		}
		return vec{scalar: v}, nil
	}

	out := make([]float64, size)
	for i := range out {
		a, b := l.scalar, r.scalar
		if l.data != nil {
			a = l.data[i]
		}
		if r.data != nil {
			b = r.data[i]
		}
		v, reason := binaryOp(n.op, a, b)
		if reason != "" {
			return vec{}, &NumericError{Op: n.String(), Index: i, Reason: reason}
		}
		out[i] = v
	}
	return vec{data: out}, nil
}

// binaryOp returns the result or a non-empty reason when the operation is
// outside the real domain.
func binaryOp(op tokenKind, a, b float64) (float64, string) {
	var v float64
	switch op {
	case tokPlus:
		v = a + b
	case tokMinus:
		v = a - b
	case tokStar:
		v = a * b
	case tokSlash:
		if b == 0 {
			return 0, "division by zero"
		}
		v = a / b
	case tokPow:
		if a == 0 && b < 0 {
			return 0, "zero raised to a negative power"
		}
		if a < 0 && b != math.Trunc(b) {
			return 0, "negative base raised to a fractional power"
		}
		v = math.Pow(a, b)
	}
	if math.IsNaN(v) {
		return 0, "result is not a number"
	}
	if math.IsInf(v, 0) {
		return 0, "overflow"
	}
	return v, ""
}
