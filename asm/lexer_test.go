package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(src string) (out []TokenKind) {
	lx := NewLexer(src)
	for {
		tok := lx.Next()
		out = append(out, tok.Kind)
		if tok.Kind == TokenEOF || tok.Kind == TokenError {
			return
		}
	}
}

func TestLexerStatement(t *testing.T) {
	assert := assert.New(t)

	lx := NewLexer("mov eax, [ebx+4] ; load\nret")

	tok := lx.Next()
	assert.Equal(TokenMnemonic, tok.Kind)
	assert.Equal("mov", tok.Text)
	assert.Equal(OpMov, tok.Op.Class)
	assert.Equal(1, tok.Line)

	tok = lx.Next()
	assert.Equal(TokenRegister, tok.Kind)
	assert.Equal(byte(0), tok.Reg)
	assert.Equal(4, tok.Width)

	assert.Equal(TokenComma, lx.Next().Kind)
	assert.Equal(TokenLBracket, lx.Next().Kind)

	tok = lx.Next()
	assert.Equal(TokenRegister, tok.Kind)
	assert.Equal(byte(3), tok.Reg)

	assert.Equal(TokenPlus, lx.Next().Kind)

	tok = lx.Next()
	assert.Equal(TokenNumber, tok.Kind)
	assert.Equal(int64(4), tok.Value)

	assert.Equal(TokenRBracket, lx.Next().Kind)

	// The comment disappears; the newline does not.
	assert.Equal(TokenNewline, lx.Next().Kind)

	tok = lx.Next()
	assert.Equal(TokenMnemonic, tok.Kind)
	assert.Equal(2, tok.Line)

	assert.Equal(TokenEOF, lx.Next().Kind)
}

func TestLexerPeek(t *testing.T) {
	assert := assert.New(t)

	lx := NewLexer("loop:")
	assert.Equal(TokenIdent, lx.Peek().Kind)
	assert.Equal(TokenIdent, lx.Peek().Kind)
	assert.Equal(TokenIdent, lx.Next().Kind)
	assert.Equal(TokenColon, lx.Next().Kind)
}

func TestLexerCaseInsensitive(t *testing.T) {
	assert := assert.New(t)

	lx := NewLexer("MOV EAX, Ebx")
	tok := lx.Next()
	assert.Equal(TokenMnemonic, tok.Kind)
	assert.Equal("mov", tok.Text)

	tok = lx.Next()
	assert.Equal(TokenRegister, tok.Kind)
	assert.Equal(byte(0), tok.Reg)

	lx.Next()
	tok = lx.Next()
	assert.Equal(TokenRegister, tok.Kind)
	assert.Equal(byte(3), tok.Reg)
}

func TestLexerRegisterWidths(t *testing.T) {
	assert := assert.New(t)

	for name, want := range map[string]regInfo{
		"eax": {0, 4}, "edi": {7, 4},
		"ax": {0, 2}, "dx": {2, 2},
		"al": {0, 1}, "cl": {1, 1}, "bh": {7, 1},
	} {
		tok := NewLexer(name).Next()
		assert.Equal(TokenRegister, tok.Kind, name)
		assert.Equal(want.index, tok.Reg, name)
		assert.Equal(want.width, tok.Width, name)
	}
}

func TestLexerNumbers(t *testing.T) {
	assert := assert.New(t)

	for src, want := range map[string]int64{
		"0":      0,
		"42":     42,
		"0x10":   16,
		"0xFF":   255,
		"0b101":  5,
		"'A'":    'A',
		"'\\n'":  '\n',
		"'\\0'":  0,
		"'\\\\'": '\\',
	} {
		tok := NewLexer(src).Next()
		assert.Equal(TokenNumber, tok.Kind, src)
		assert.Equal(want, tok.Value, src)
	}
}

func TestLexerString(t *testing.T) {
	assert := assert.New(t)

	tok := NewLexer(`"hi\n\t\"\\\0"`).Next()
	assert.Equal(TokenString, tok.Kind)
	assert.Equal("hi\n\t\"\\\x00", tok.Text)

	// Unterminated strings are error tokens, not lexer failures.
	tok = NewLexer("\"oops\nret").Next()
	assert.Equal(TokenError, tok.Kind)
}

func TestLexerDirectives(t *testing.T) {
	assert := assert.New(t)

	for src, want := range map[string]Directive{
		"db": DirDb, "dw": DirDw, "dd": DirDd,
		"resb": DirResb, "resw": DirResw, "resd": DirResd,
		"times": DirTimes, "equ": DirEqu, "section": DirSection,
		"short": DirShort,
	} {
		tok := NewLexer(src).Next()
		assert.Equal(TokenDirective, tok.Kind, src)
		assert.Equal(want, tok.Dir, src)
	}
}

func TestLexerInclude(t *testing.T) {
	assert := assert.New(t)

	lx := NewLexer(`%include "lib.asm"`)
	assert.Equal(TokenInclude, lx.Next().Kind)

	tok := lx.Next()
	assert.Equal(TokenString, tok.Kind)
	assert.Equal("lib.asm", tok.Text)

	// Unknown preprocessor keywords are error tokens.
	assert.Equal(TokenError, NewLexer("%define x").Next().Kind)
}

func TestLexerExpr(t *testing.T) {
	assert := assert.New(t)

	tok := NewLexer("$(1 + (2 * 3))").Next()
	assert.Equal(TokenExpr, tok.Kind)
	assert.Equal("1 + (2 * 3)", tok.Text)

	assert.Equal(TokenError, NewLexer("$(1 + 2").Next().Kind)
	assert.Equal(TokenError, NewLexer("$5").Next().Kind)
}

func TestLexerUnknownRune(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(
		[]TokenKind{TokenMnemonic, TokenRegister, TokenError},
		kinds("mov eax @"))
}

func TestLexerJccAliases(t *testing.T) {
	assert := assert.New(t)

	je := NewLexer("je").Next()
	jz := NewLexer("jz").Next()
	assert.Equal(TokenMnemonic, je.Kind)
	assert.Equal(OpJcc, je.Op.Class)
	assert.Equal(je.Op.Cond, jz.Op.Cond)

	jne := NewLexer("jne").Next()
	assert.Equal(byte(0x5), jne.Op.Cond)
}

func FuzzLexer(f *testing.F) {
	f.Add("mov eax, [ebx+4]")
	f.Add("main:\n\tdb \"hi\\n\", 0\n")
	f.Add("%include \"x\" $(1+2) 'q' 0xZZ")
	f.Add(";;;\x00\xff\"")

	f.Fuzz(func(t *testing.T, src string) {
		lx := NewLexer(src)
		for n := 0; n < len(src)+1; n++ {
			tok := lx.Next()
			if tok.Kind == TokenEOF {
				return
			}
		}
		// Every token consumes input, so the stream must end within
		// len(src)+1 tokens unless it hit an error token loop.
		t.Fatalf("lexer did not terminate on %q", src)
	})
}
