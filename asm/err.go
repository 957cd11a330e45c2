package asm

import (
	"errors"

	"github.com/cupidthecat/cupidasm/translate"
)

var f = translate.From

var (
	// Parse errors
	ErrStatementInvalid = errors.New(f("statement invalid"))
	ErrOperandInvalid   = errors.New(f("operand invalid"))
	ErrOperandWidth     = errors.New(f("operand width mismatch"))
	ErrCommaMissing     = errors.New(f("comma missing"))
	ErrBracketMissing   = errors.New(f("] missing"))
	ErrTrailingTokens   = errors.New(f("trailing tokens after statement"))
	ErrEquSyntax        = errors.New(f("equ needs a name and a value"))
	ErrSectionInvalid   = errors.New(f("section must be .text or .data"))
	ErrCountInvalid     = errors.New(f("count invalid"))
	ErrScaleInvalid     = errors.New(f("scale must be 1, 2, 4 or 8"))
	ErrIndexInvalid     = errors.New(f("esp cannot be an index register"))
	ErrStringInvalid    = errors.New(f("string not allowed here"))
	ErrIncludePath      = errors.New(f("%include needs a quoted path"))
	ErrIncludeDisabled  = errors.New(f("%include not available"))
	ErrPortInvalid      = errors.New(f("port must be dx or an 8-bit immediate"))
	ErrShiftCount       = errors.New(f("shift count must be cl or an immediate"))

	// Encode errors
	ErrImmediateRange = errors.New(f("immediate out of range"))
	ErrShortJumpRange = errors.New(f("short jump out of range"))

	// Resource errors
	ErrCodeFull     = errors.New(f("code buffer full"))
	ErrDataFull     = errors.New(f("data buffer full"))
	ErrIncludeDepth = errors.New(f("include depth exceeded"))
	ErrSourceSize   = errors.New(f("source file too large"))

	// Resolution / driver-visible errors
	ErrEntryMissing   = errors.New(f("no main or _start label"))
	ErrEntryDuplicate = errors.New(f("entry point defined twice"))
)

// ErrSyntax wraps any assembly error with its source line, yielding the
// single user-visible "line N: message" form.
type ErrSyntax struct {
	LineNo int
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d: %v", err.LineNo, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrLabelUndefined string

func (err ErrLabelUndefined) Error() string {
	return f("label %v undefined", string(err))
}

type ErrLabelDuplicate string

func (err ErrLabelDuplicate) Error() string {
	return f("label %v already defined", string(err))
}

type ErrTokenUnexpected Token

func (err ErrTokenUnexpected) Error() string {
	if err.Text == "" {
		return f("unexpected %v", err.Kind)
	}
	return f("unexpected %v '%v'", err.Kind, err.Text)
}

type ErrExpression struct {
	Expr string
	Err  error
}

func (err ErrExpression) Error() string {
	return f("$(%v): %v", err.Expr, err.Err)
}

func (err ErrExpression) Unwrap() error {
	return err.Err
}

type ErrInclude struct {
	Path string
	Err  error
}

func (err ErrInclude) Error() string {
	return f("%%include %v: %v", err.Path, err.Err)
}

func (err ErrInclude) Unwrap() error {
	return err.Err
}
