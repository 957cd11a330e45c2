package asm

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// evalExpr computes a $( ... ) compile-time constant expression. Every
// label already bound to a value - equ constants and defined addresses,
// host bindings included - is visible to the expression as an integer.
func (a *Assembly) evalExpr(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}

	pred := starlark.StringDict{}
	for name, lbl := range a.labels {
		if !lbl.Defined {
			continue
		}
		pred[name] = starlark.MakeInt(int(lbl.Addr))
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = &ErrExpression{Expr: expr, Err: err}
		return
	}

	rc, ok := dict["rc"]
	if !ok {
		err = &ErrExpression{Expr: expr, Err: ErrOperandInvalid}
		return
	}
	rcInt, ok := rc.(starlark.Int)
	if !ok {
		err = &ErrExpression{Expr: expr, Err: ErrOperandInvalid}
		return
	}
	rc64, ok := rcInt.Int64()
	if !ok || rc64 > 0xffffffff || rc64 < -int64(0x80000000) {
		err = &ErrExpression{Expr: expr, Err: ErrImmediateRange}
		return
	}

	value = uint32(rc64)
	return
}
