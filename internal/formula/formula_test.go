package formula

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEvaluate_ElementWise(t *testing.T) {
	samples := map[string][]float64{
		"A": {1, 2, 3},
		"B": {10, 20, 30},
	}
	got, err := Evaluate("A + B", samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{11, 22, 33}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvaluate_Precedence(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"(-2) ** 2", 4},
		{"2 ** -1", 0.5},
		{"10 / 4 / 5", 0.5},
		{"10 - 4 - 3", 3},
		{"--3", 3},
		{"+X * 2", 8},
		{"X ** 0.5", 2},
		{"1.5e2 + .5", 150.5},
		{"-X * -X", 16},
		{"(-8) ** 3", -512},
	}
	samples := map[string][]float64{"X": {4}}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := Evaluate(tt.formula, samples)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 || math.Abs(got[0]-tt.want) > 1e-12 {
				t.Errorf("%s = %v, want %v", tt.formula, got, tt.want)
			}
		})
	}
}

func TestCompile_Sandboxed(t *testing.T) {
	tests := []string{
		"__import__('os')",
		"1; 2",
		"A.real",
		"abs(A)",
		"A = 1",
		"lambda: 1",
		"A[0]",
		"",
		"   ",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"A B",
		"2A",
		"1e",
		"1..2",
		"A // 2",
		"A % 2",
		"\"A\"",
		"A ** ",
		"A,B",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("expected syntax error for %q, got %v", src, err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestCompile_LimitsRecursion(t *testing.T) {
	deep := strings.Repeat("(", MaxDepth+1) + "1" + strings.Repeat(")", MaxDepth+1)
	if _, err := Compile(deep); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected depth limit error, got %v", err)
	}
	long := strings.Repeat("1+", MaxLength) + "1"
	if _, err := Compile(long); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected length limit error, got %v", err)
	}
}

func TestExpression_Identifiers(t *testing.T) {
	expr, err := Compile("Revenue - Cost * Revenue / _tax2")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(expr.Identifiers(), ",")
	if got != "Cost,Revenue,_tax2" {
		t.Errorf("Identifiers() = %s", got)
	}
}

func TestEval_UndefinedVariable(t *testing.T) {
	_, err := Evaluate("A + C", map[string][]float64{"A": {1}, "B": {2}})
	var uv *UndefinedVariableError
	if !errors.As(err, &uv) || uv.Name != "C" {
		t.Fatalf("expected undefined variable C, got %v", err)
	}
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable in chain")
	}
	if _, err := Evaluate("x", nil); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected undefined variable with empty samples, got %v", err)
	}
}

func TestEval_LengthMismatch(t *testing.T) {
	_, err := Evaluate("A", map[string][]float64{"A": {1, 2}, "B": {1}})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
}

func TestEval_NumericPolicy(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		index   int
	}{
		{"DivisionByZero", "A / B", 1},
		{"ZeroNegativePower", "B ** -1", 1},
		{"FractionalPowerOfNegative", "(A - 3) ** 0.5", 0},
		{"Overflow", "A * 1e308", 1},
		{"ConstantDivision", "A + 1 / 0", -1},
	}
	samples := map[string][]float64{"A": {1, 2}, "B": {1, 0}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.formula, samples)
			var ne *NumericError
			if !errors.As(err, &ne) {
				t.Fatalf("expected NumericError, got %v", err)
			}
			if ne.Index != tt.index {
				t.Errorf("expected failure at index %d, got %d (%v)", tt.index, ne.Index, err)
			}
			if !errors.Is(err, ErrNumeric) {
				t.Errorf("expected ErrNumeric in chain")
			}
		})
	}
}

func TestEval_NonFiniteInputs(t *testing.T) {
	samples := map[string][]float64{"A": {1, math.Inf(1), 3}, "B": {math.NaN(), 0, 0}}
	tests := []struct {
		formula string
		index   int
	}{
		{"A", 1},
		{"+A", 1},
		{"-A", 1},
		{"(B)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := Evaluate(tt.formula, samples)
			var ne *NumericError
			if !errors.As(err, &ne) {
				t.Fatalf("expected NumericError, got %v", err)
			}
			if ne.Index != tt.index {
				t.Errorf("expected failure at index %d, got %d", tt.index, ne.Index)
			}
		})
	}
}

func TestEval_ConstantBroadcast(t *testing.T) {
	got, err := Evaluate("2 * 3", map[string][]float64{"A": {1, 2, 3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[3] != 6 {
		t.Errorf("expected constant broadcast to 4 values, got %v", got)
	}
	got, err = Evaluate("1 + 1", nil)
	if err != nil || len(got) != 1 || got[0] != 2 {
		t.Errorf("expected single value for empty samples, got %v, %v", got, err)
	}
}

func TestEval_DoesNotAliasInput(t *testing.T) {
	a := []float64{1, 2, 3}
	got, err := Evaluate("A", map[string][]float64{"A": a})
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 100
	if a[0] != 1 {
		t.Errorf("result must not share memory with samples")
	}
}
