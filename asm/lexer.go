// Copyright 2026, The cupid-os authors

package asm

import (
	"strings"

	"github.com/japanoise/numparse"
)

// Lexer walks a single source text and hands out one Token at a time.
// It is a plain value threaded through the parser, so nested %include
// files are just additional Lexer values with no shared state.
//
// The lexer never fails: unrecognized input comes back as a TokenError
// and the parser decides what to do with it.
type Lexer struct {
	src    string
	pos    int
	line   int
	peeked *Token
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Peek returns the next token without consuming it. The parser needs
// exactly one token of look-ahead.
func (lx *Lexer) Peek() Token {
	if lx.peeked == nil {
		tok := lx.scan()
		lx.peeked = &tok
	}
	return *lx.peeked
}

// Next consumes and returns the next token.
func (lx *Lexer) Next() Token {
	if lx.peeked != nil {
		tok := *lx.peeked
		lx.peeked = nil
		return tok
	}
	return lx.scan()
}

// Line reports the current source line, for error context.
func (lx *Lexer) Line() int {
	if lx.peeked != nil {
		return lx.peeked.Line
	}
	return lx.line
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (lx *Lexer) scan() (tok Token) {
	// Skip horizontal space and ;-comments. Newlines are statement
	// separators and significant.
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == ' ' || c == '\t' || c == '\r' {
			lx.pos++
			continue
		}
		if c == ';' {
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
			continue
		}
		break
	}

	tok.Line = lx.line

	if lx.pos >= len(lx.src) {
		tok.Kind = TokenEOF
		return
	}

	c := lx.src[lx.pos]
	switch {
	case c == '\n':
		lx.pos++
		lx.line++
		tok.Kind = TokenNewline
		return
	case c == '[':
		lx.pos++
		tok.Kind = TokenLBracket
		return
	case c == ']':
		lx.pos++
		tok.Kind = TokenRBracket
		return
	case c == '+':
		lx.pos++
		tok.Kind = TokenPlus
		return
	case c == '-':
		lx.pos++
		tok.Kind = TokenMinus
		return
	case c == '*':
		lx.pos++
		tok.Kind = TokenStar
		return
	case c == ',':
		lx.pos++
		tok.Kind = TokenComma
		return
	case c == ':':
		lx.pos++
		tok.Kind = TokenColon
		return
	case c == '%':
		return lx.scanPercent()
	case c == '$':
		return lx.scanExpr()
	case c == '"':
		return lx.scanString()
	case c == '\'':
		return lx.scanChar()
	case c >= '0' && c <= '9':
		return lx.scanNumber()
	case isIdentStart(c):
		return lx.scanWord()
	}

	lx.pos++
	tok.Kind = TokenError
	tok.Text = string(c)
	return
}

// scanPercent handles preprocessor keywords. Only %include exists.
func (lx *Lexer) scanPercent() (tok Token) {
	tok.Line = lx.line
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.pos++
	}
	word := strings.ToLower(lx.src[start:lx.pos])
	if word == "%include" {
		tok.Kind = TokenInclude
		tok.Text = word
		return
	}
	tok.Kind = TokenError
	tok.Text = lx.src[start:lx.pos]
	return
}

// scanExpr captures the raw text of a $( ... ) constant expression,
// honoring balanced parentheses. Evaluation happens in the parser.
func (lx *Lexer) scanExpr() (tok Token) {
	tok.Line = lx.line
	if lx.pos+1 >= len(lx.src) || lx.src[lx.pos+1] != '(' {
		lx.pos++
		tok.Kind = TokenError
		tok.Text = "$"
		return
	}
	start := lx.pos + 2
	depth := 1
	i := start
	for i < len(lx.src) && depth > 0 {
		switch lx.src[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '\n':
			tok.Kind = TokenError
			tok.Text = lx.src[lx.pos:i]
			lx.pos = i
			return
		}
		i++
	}
	if depth != 0 {
		tok.Kind = TokenError
		tok.Text = lx.src[lx.pos:]
		lx.pos = len(lx.src)
		return
	}
	tok.Kind = TokenExpr
	tok.Text = lx.src[start : i-1]
	lx.pos = i
	return
}

func unescape(c byte) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	}
	return 0, false
}

func (lx *Lexer) scanString() (tok Token) {
	tok.Line = lx.line
	start := lx.pos
	lx.pos++
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '\n' {
			break
		}
		if c == '"' {
			lx.pos++
			tok.Kind = TokenString
			tok.Text = sb.String()
			return
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			if e, ok := unescape(lx.src[lx.pos+1]); ok {
				sb.WriteByte(e)
				lx.pos += 2
				continue
			}
		}
		sb.WriteByte(c)
		lx.pos++
	}
	// Unterminated string.
	tok.Kind = TokenError
	tok.Text = lx.src[start:lx.pos]
	return
}

func (lx *Lexer) scanChar() (tok Token) {
	tok.Line = lx.line
	start := lx.pos
	lx.pos++
	if lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		n := 1
		ok := c != '\n' && c != '\''
		if c == '\\' && lx.pos+1 < len(lx.src) {
			e, esc := unescape(lx.src[lx.pos+1])
			if esc {
				c = e
				n = 2
			} else {
				ok = false
			}
		}
		if ok && lx.pos+n < len(lx.src) && lx.src[lx.pos+n] == '\'' {
			lx.pos += n + 1
			tok.Kind = TokenNumber
			tok.Value = int64(c)
			tok.Text = lx.src[start:lx.pos]
			return
		}
	}
	tok.Kind = TokenError
	tok.Text = lx.src[start:lx.pos]
	return
}

// scanNumber accepts decimal, 0x hex and 0b binary literals.
func (lx *Lexer) scanNumber() (tok Token) {
	tok.Line = lx.line
	start := lx.pos
	for lx.pos < len(lx.src) && (isIdentPart(lx.src[lx.pos]) && lx.src[lx.pos] != '.') {
		lx.pos++
	}
	text := lx.src[start:lx.pos]
	value, err := numparse.UNumParse(text)
	if err != nil || value > 0xffffffff {
		tok.Kind = TokenError
		tok.Text = text
		return
	}
	tok.Kind = TokenNumber
	tok.Text = text
	tok.Value = int64(value)
	return
}

// scanWord classifies an identifier-shaped word: register, mnemonic,
// directive keyword, or a plain (label) identifier. Keywords match
// case-insensitively; label names keep their spelling.
func (lx *Lexer) scanWord() (tok Token) {
	tok.Line = lx.line
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.pos++
	}
	text := lx.src[start:lx.pos]
	word := strings.ToLower(text)

	if reg, ok := regMap[word]; ok {
		tok.Kind = TokenRegister
		tok.Text = word
		tok.Reg = reg.index
		tok.Width = reg.width
		return
	}
	if op, ok := opMap[word]; ok {
		tok.Kind = TokenMnemonic
		tok.Text = word
		tok.Op = op
		return
	}
	if dir, ok := dirMap[word]; ok {
		tok.Kind = TokenDirective
		tok.Text = word
		tok.Dir = dir
		return
	}

	tok.Kind = TokenIdent
	tok.Text = text
	return
}
