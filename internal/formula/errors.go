package formula

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax            = errors.New("formula syntax error")
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrNumeric           = errors.New("numeric evaluation error")
	ErrLengthMismatch    = errors.New("sample length mismatch")
)

// SyntaxError reports where parsing stopped. Pos is a byte offset into the formula.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrSyntax, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// UndefinedVariableError names an identifier with no matching sample sequence.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUndefinedVariable, e.Name)
}

func (e *UndefinedVariableError) Unwrap() error { return ErrUndefinedVariable }

// NumericError reports a domain failure at a sample index. Index is -1 when
// the failing operation involved constants only.
type NumericError struct {
	Op     string
	Index  int
	Reason string
}

func (e *NumericError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s in '%s'", ErrNumeric, e.Reason, e.Op)
	}
	return fmt.Sprintf("%v: %s in '%s' at sample %d", ErrNumeric, e.Reason, e.Op, e.Index)
}

func (e *NumericError) Unwrap() error { return ErrNumeric }
