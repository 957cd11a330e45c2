package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// assemble runs the full parse + resolve pipeline over src.
func assemble(t *testing.T, src string) *Assembly {
	t.Helper()

	a := New(testCodeBase, testDataBase)
	if err := a.ParseSource(src); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := a.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return a
}

func TestParseForwardReference(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"main:",
		"jmp done",
		"db 0xCC",
		"done:",
		"ret",
	}, "\n"))

	// The placeholder at offset 1 is patched to skip the data byte.
	assert.Equal([]byte{0xE9, 0x01, 0x00, 0x00, 0x00, 0xCC, 0xC3}, a.Code())

	addr, ok := a.Lookup("done")
	assert.True(ok)
	assert.Equal(testCodeBase+6, addr)
}

func TestParseBackwardBranch(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"main:",
		"dec eax",
		"jnz main",
	}, "\n"))

	assert.Equal([]byte{0x48, 0x0F, 0x85, 0xF9, 0xFF, 0xFF, 0xFF}, a.Code())
}

func TestParseUndefinedLabel(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.NoError(a.ParseSource("main:\njmp nowhere\n"))
	err := a.Resolve()
	assert.ErrorIs(err, ErrLabelUndefined("nowhere"))

	// The error sticks.
	assert.Equal(err, a.Err())
	assert.Equal(err, a.ParseSource("ret\n"))
}

func TestParseShortJumpRange(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.NoError(a.ParseSource(strings.Join([]string{
		"main:",
		"jmp short far",
		"times 200 db 0x90",
		"far:",
		"ret",
	}, "\n")))
	assert.ErrorIs(a.Resolve(), ErrShortJumpRange)
}

func TestParseEqu(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"count equ 4",
		"main:",
		"mov eax, count",
		"add eax, count",
	}, "\n"))

	assert.Equal([]byte{0xB8, 0x04, 0x00, 0x00, 0x00, 0x83, 0xC0, 0x04}, a.Code())

	value, ok := a.Lookup("count")
	assert.True(ok)
	assert.Equal(uint32(4), value)
}

func TestParseEquRebind(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"x equ 1",
		"x equ 2",
		"main:",
		"mov eax, x",
	}, "\n"))

	assert.Equal([]byte{0xB8, 0x02, 0x00, 0x00, 0x00}, a.Code())
}

func TestParseLabelDuplicate(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	err := a.ParseSource("main:\nmain:\n")
	assert.ErrorIs(err, ErrLabelDuplicate("main"))

	a = New(testCodeBase, testDataBase)
	err = a.ParseSource("main:\n_start:\n")
	assert.ErrorIs(err, ErrEntryDuplicate)
}

func TestParseEntryMissing(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.NoError(a.ParseSource("start:\nret\n"))
	assert.ErrorIs(a.Resolve(), ErrEntryMissing)
}

func TestParseEntryOffset(t *testing.T) {
	assert := assert.New(t)

	// The entry point is an offset, not necessarily zero.
	a := assemble(t, strings.Join([]string{
		"helper:",
		"ret",
		"main:",
		"call helper",
		"ret",
	}, "\n"))

	assert.Equal(1, a.Entry())
}

func TestParseDataSection(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"main:",
		"mov eax, msg",
		"ret",
		"section .data",
		"msg:",
		`db "Hi", 0`,
	}, "\n"))

	assert.Equal([]byte{0xB8, 0x00, 0x90, 0x0C, 0x08, 0xC3}, a.Code())
	assert.Equal([]byte{'H', 'i', 0}, a.Data())

	addr, ok := a.Lookup("msg")
	assert.True(ok)
	assert.Equal(testDataBase, addr)
}

func TestParseSectionSwitch(t *testing.T) {
	assert := assert.New(t)

	// Data directives emit into whichever section is active, and
	// .text can be resumed after .data.
	a := assemble(t, strings.Join([]string{
		"main:",
		"db 0x90",
		"section .data",
		"db 0xAA",
		"section .text",
		"ret",
	}, "\n"))

	assert.Equal([]byte{0x90, 0xC3}, a.Code())
	assert.Equal([]byte{0xAA}, a.Data())
}

func TestParseSectionInvalid(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("main:\nsection .bss\n"), ErrSectionInvalid)
}

func TestParseDataWidths(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"main:",
		"db 1, -1, 'A'",
		"dw 0x1234",
		"dd 0xDEADBEEF",
	}, "\n"))

	assert.Equal([]byte{
		0x01, 0xFF, 0x41,
		0x34, 0x12,
		0xEF, 0xBE, 0xAD, 0xDE,
	}, a.Code())
}

func TestParseDataForwardLabel(t *testing.T) {
	assert := assert.New(t)

	// A dd may name a label defined later; it takes a full address
	// slot and is patched during resolution.
	a := assemble(t, strings.Join([]string{
		"main:",
		"ret",
		"section .data",
		"table:",
		"dd after",
		"after:",
		"db 0",
	}, "\n"))

	assert.Equal([]byte{0x04, 0x90, 0x0C, 0x08, 0x00}, a.Data())
}

func TestParseDataRangeChecked(t *testing.T) {
	assert := assert.New(t)

	// Values reaching db/dw through an equ constant or a $()
	// expression obey the same width check as literals.
	a := New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("big equ 300\nmain:\ndb big\n"), ErrImmediateRange)

	a = New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("main:\ndb $(300)\n"), ErrImmediateRange)

	a = New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("main:\ndw $(0x10000)\n"), ErrImmediateRange)

	// An address never fits a narrow slot, defined or not.
	a = New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("main:\ndb main\n"), ErrOperandWidth)

	// In-range values still pass.
	a = assemble(t, "small equ 200\nmain:\ndb small, $(0xFF)\n")
	assert.Equal([]byte{0xC8, 0xFF}, a.Code())
}

func TestParseDataForwardLabelNarrow(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	err := a.ParseSource("main:\ndb later\nlater:\n")
	assert.ErrorIs(err, ErrOperandWidth)
}

func TestParseTimes(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, "main:\ntimes 3 db 0xAA\n")
	assert.Equal([]byte{0xAA, 0xAA, 0xAA}, a.Code())

	a = assemble(t, "main:\ntimes 2 dw 1, 2\n")
	assert.Equal([]byte{0x01, 0x00, 0x02, 0x00, 0x01, 0x00, 0x02, 0x00}, a.Code())
}

func TestParseReserve(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, strings.Join([]string{
		"main:",
		"section .data",
		"buf:",
		"resb 3",
		"resw 2",
		"resd 1",
	}, "\n"))

	assert.Equal(make([]byte, 3+4+4), a.Data())
}

func TestParseExpr(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, "main:\nmov eax, $(2 + 3*4)\n")
	assert.Equal([]byte{0xB8, 0x0E, 0x00, 0x00, 0x00}, a.Code())

	// Constants defined earlier are visible inside expressions.
	a = assemble(t, strings.Join([]string{
		"width equ 10",
		"main:",
		"mov eax, $(width * 2)",
	}, "\n"))
	assert.Equal([]byte{0xB8, 0x14, 0x00, 0x00, 0x00}, a.Code())
}

func TestParseExprError(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	err := a.ParseSource("main:\nmov eax, $(nope)\n")
	var ee *ErrExpression
	assert.ErrorAs(err, &ee)
}

func TestParseTrailingTokens(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("main:\nret ret\n"), ErrTrailingTokens)
}

func TestParseSyntaxErrorLine(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	err := a.ParseSource("main:\nnop\nmov eax\n")
	var se *ErrSyntax
	assert.ErrorAs(err, &se)
	assert.Equal(3, se.LineNo)
	assert.ErrorIs(err, ErrCommaMissing)
}

func TestParseInclude(t *testing.T) {
	assert := assert.New(t)

	files := map[string]string{
		"lib.asm": "double:\nadd eax, eax\nret\n",
	}

	a := New(testCodeBase, testDataBase)
	a.ReadFile = func(path string) ([]byte, error) {
		src, ok := files[path]
		if !ok {
			return nil, errors.New("no such file")
		}
		return []byte(src), nil
	}
	assert.NoError(a.ParseSource(strings.Join([]string{
		`%include "lib.asm"`,
		"main:",
		"mov eax, 21",
		"call double",
		"ret",
	}, "\n")))
	assert.NoError(a.Resolve())

	// double: 01 C0 C3, then main.
	assert.Equal([]byte{
		0x01, 0xC0, 0xC3,
		0xB8, 0x15, 0x00, 0x00, 0x00,
		0xE8, 0xF3, 0xFF, 0xFF, 0xFF,
		0xC3,
	}, a.Code())
	assert.Equal(3, a.Entry())
}

func TestParseIncludeMissing(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	a.ReadFile = func(path string) ([]byte, error) {
		return nil, errors.New("no such file")
	}
	err := a.ParseSource("%include \"gone.asm\"\n")
	var ie *ErrInclude
	assert.ErrorAs(err, &ie)
	assert.Equal("gone.asm", ie.Path)
}

func TestParseIncludeDisabled(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	assert.ErrorIs(a.ParseSource("%include \"lib.asm\"\n"), ErrIncludeDisabled)
}

func TestParseIncludeCycle(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	a.ReadFile = func(path string) ([]byte, error) {
		return []byte("%include \"self.asm\"\n"), nil
	}
	err := a.ParseSource("%include \"self.asm\"\n")
	assert.ErrorIs(err, ErrIncludeDepth)
}

func TestParseSourceLimit(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	big := strings.Repeat(";", SOURCE_LIMIT+1)
	assert.ErrorIs(a.ParseSource(big), ErrSourceSize)
}

func TestParseHostBindings(t *testing.T) {
	assert := assert.New(t)

	a := New(testCodeBase, testDataBase)
	a.Bind("host_putc", 0x1000)
	a.Define("STDOUT", 1)
	assert.NoError(a.ParseSource(strings.Join([]string{
		"main:",
		"mov ebx, STDOUT",
		"call host_putc",
		"ret",
	}, "\n")))
	assert.NoError(a.Resolve())

	code := a.Code()
	assert.Equal([]byte{0xBB, 0x01, 0x00, 0x00, 0x00}, code[:5])
	assert.Equal(byte(0xE8), code[5])

	// rel32 is relative to the end of the call instruction.
	base := testCodeBase
	want := uint32(0x1000) - (base + 10)
	got := uint32(code[6]) | uint32(code[7])<<8 | uint32(code[8])<<16 | uint32(code[9])<<24
	assert.Equal(want, got)
}

func TestParseIdempotent(t *testing.T) {
	assert := assert.New(t)

	src := strings.Join([]string{
		"main:",
		"mov eax, msg",
		"loop:",
		"dec ecx",
		"jnz loop",
		"ret",
		"section .data",
		"msg:",
		`db "hello", 10, 0`,
	}, "\n")

	first := assemble(t, src)
	second := assemble(t, src)
	assert.Equal(first.Code(), second.Code())
	assert.Equal(first.Data(), second.Data())
	assert.Equal(first.Entry(), second.Entry())
}
