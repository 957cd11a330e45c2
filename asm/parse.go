// Copyright 2026, The cupid-os authors

package asm

// parser couples one lexer with the shared assembly state. %include
// files get their own parser over the same state, so nesting is plain
// recursion.
type parser struct {
	a  *Assembly
	lx *Lexer
}

// ParseSource assembles src into the state, one statement per line.
// The first error sticks; emission after it is a no-op and the parse
// stops. Forward references stay unresolved until Resolve.
func (a *Assembly) ParseSource(src string) error {
	if a.err != nil {
		return a.err
	}
	if len(src) > SOURCE_LIMIT {
		return a.fail(0, ErrSourceSize)
	}
	p := &parser{a: a, lx: NewLexer(src)}
	return p.parseProgram()
}

func (p *parser) parseProgram() error {
	for {
		if p.a.err != nil {
			return p.a.err
		}
		tok := p.lx.Next()
		switch tok.Kind {
		case TokenEOF:
			return nil
		case TokenNewline:
			continue
		case TokenError:
			return p.a.fail(tok.Line, ErrTokenUnexpected(tok))
		case TokenInclude:
			if err := p.include(tok.Line); err != nil {
				return err
			}
		case TokenIdent:
			if err := p.labelOrEqu(tok); err != nil {
				return p.a.fail(tok.Line, err)
			}
		case TokenDirective:
			if err := p.directive(tok); err != nil {
				return p.a.fail(tok.Line, err)
			}
		case TokenMnemonic:
			if err := p.encodeInstruction(tok.Op, tok.Line); err != nil {
				return p.a.fail(tok.Line, err)
			}
			if err := p.endStatement(); err != nil {
				return p.a.fail(tok.Line, err)
			}
		default:
			return p.a.fail(tok.Line, ErrTokenUnexpected(tok))
		}
	}
}

// endStatement requires the line to be over.
func (p *parser) endStatement() error {
	tok := p.lx.Next()
	if tok.Kind != TokenNewline && tok.Kind != TokenEOF {
		return ErrTrailingTokens
	}
	return nil
}

// labelOrEqu handles the two identifier-led statement forms: "name:"
// label definitions (which may share a line with a directive or an
// instruction, handled by the main loop) and "name equ value".
func (p *parser) labelOrEqu(tok Token) error {
	next := p.lx.Peek()
	switch {
	case next.Kind == TokenColon:
		p.lx.Next()
		return p.a.define(tok.Text, tok.Line)

	case next.Kind == TokenDirective && next.Dir == DirEqu:
		p.lx.Next()
		value, err := p.constValue(tok.Line)
		if err != nil {
			return ErrEquSyntax
		}
		if err := p.a.defineConst(tok.Text, value); err != nil {
			return err
		}
		return p.endStatement()
	}
	return ErrStatementInvalid
}

// constValue reads a value that must be fully known now: a number, a
// char, a $() expression, or an already-defined label.
func (p *parser) constValue(line int) (uint32, error) {
	op, err := p.parseOperand(line)
	if err != nil {
		return 0, err
	}
	value, err := constImm(&op)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}

func (p *parser) directive(tok Token) error {
	switch tok.Dir {
	case DirDb, DirDw, DirDd:
		items, err := p.dataItems(tok.Dir, tok.Line)
		if err != nil {
			return err
		}
		p.emitItems(items, tok.Line)
		return nil

	case DirResb, DirResw, DirResd:
		unit := map[Directive]int{DirResb: 1, DirResw: 2, DirResd: 4}[tok.Dir]
		count, err := p.constValue(tok.Line)
		if err != nil || int64(count)*int64(unit) > DATA_LIMIT {
			return ErrCountInvalid
		}
		p.a.emit(tok.Line, make([]byte, int(count)*unit)...)
		return p.endStatement()

	case DirTimes:
		return p.times(tok.Line)

	case DirSection:
		return p.sectionDirective(tok.Line)
	}
	return ErrStatementInvalid
}

func (p *parser) sectionDirective(line int) error {
	tok := p.lx.Next()
	if tok.Kind != TokenIdent {
		return ErrSectionInvalid
	}
	switch tok.Text {
	case ".text", "text":
		p.a.section = SectionText
	case ".data", "data":
		p.a.section = SectionData
	default:
		return ErrSectionInvalid
	}
	return p.endStatement()
}

// times repeats a single data directive: "times N db 0".
func (p *parser) times(line int) error {
	count, err := p.constValue(line)
	if err != nil {
		return ErrCountInvalid
	}
	tok := p.lx.Next()
	if tok.Kind != TokenDirective {
		return ErrStatementInvalid
	}
	switch tok.Dir {
	case DirDb, DirDw, DirDd:
	default:
		return ErrStatementInvalid
	}
	items, err := p.dataItems(tok.Dir, line)
	if err != nil {
		return err
	}
	for range count {
		p.emitItems(items, line)
		if p.a.err != nil {
			return p.a.err
		}
	}
	return nil
}

// dataItem is one comma-separated element of a db/dw/dd statement.
type dataItem struct {
	width int
	value uint32
	label string
	str   string
	isStr bool
}

// dataItems reads the element list of a db/dw/dd statement, through
// the end of the line.
func (p *parser) dataItems(dir Directive, line int) (items []dataItem, err error) {
	width := map[Directive]int{DirDb: 1, DirDw: 2, DirDd: 4}[dir]
	for {
		tok := p.lx.Next()
		switch tok.Kind {
		case TokenString:
			if dir != DirDb {
				return nil, ErrStringInvalid
			}
			items = append(items, dataItem{width: width, str: tok.Text, isStr: true})

		case TokenNumber:
			if !immFitsWidth(tok.Value, width) {
				return nil, ErrImmediateRange
			}
			items = append(items, dataItem{width: width, value: uint32(tok.Value)})

		case TokenMinus:
			num := p.lx.Next()
			if num.Kind != TokenNumber || !immFitsWidth(-num.Value, width) {
				return nil, ErrImmediateRange
			}
			items = append(items, dataItem{width: width, value: uint32(int32(-num.Value))})

		case TokenExpr:
			var value uint32
			value, err = p.a.evalExpr(tok.Text)
			if err != nil {
				return nil, err
			}
			if !immFitsWidth(int64(value), width) {
				return nil, ErrImmediateRange
			}
			items = append(items, dataItem{width: width, value: value})

		case TokenIdent:
			lbl := p.a.ref(tok.Text)
			switch {
			case lbl.Defined && lbl.Constant:
				if !immFitsWidth(int64(lbl.Addr), width) {
					return nil, ErrImmediateRange
				}
				items = append(items, dataItem{width: width, value: lbl.Addr})
			case lbl.Defined:
				// Addresses always take a full slot.
				if width != 4 {
					return nil, ErrOperandWidth
				}
				items = append(items, dataItem{width: width, value: lbl.Addr})
			default:
				// So do forward references.
				if width != 4 {
					return nil, ErrOperandWidth
				}
				items = append(items, dataItem{width: width, label: tok.Text})
			}

		default:
			return nil, ErrTokenUnexpected(tok)
		}

		tok = p.lx.Next()
		switch tok.Kind {
		case TokenComma:
		case TokenNewline, TokenEOF:
			return items, nil
		default:
			return nil, ErrCommaMissing
		}
	}
}

func (p *parser) emitItems(items []dataItem, line int) {
	for _, item := range items {
		switch {
		case item.isStr:
			p.a.emit(line, []byte(item.str)...)
		case item.label != "":
			p.a.patch(line, item.label, false, 4)
		default:
			switch item.width {
			case 1:
				p.a.emit(line, byte(item.value))
			case 2:
				p.a.emit16(line, uint16(item.value))
			default:
				p.a.emit32(line, item.value)
			}
		}
	}
}

// include reads a nested source file through the host collaborator and
// re-enters the parser over the same state. Depth is bounded so an
// include cycle fails instead of recursing forever.
func (p *parser) include(line int) error {
	tok := p.lx.Next()
	if tok.Kind != TokenString {
		return p.a.fail(line, ErrIncludePath)
	}
	if err := p.endStatement(); err != nil {
		return p.a.fail(line, err)
	}
	if p.a.ReadFile == nil {
		return p.a.fail(line, ErrIncludeDisabled)
	}
	if p.a.depth >= INCLUDE_LIMIT {
		return p.a.fail(line, ErrIncludeDepth)
	}

	data, err := p.a.ReadFile(tok.Text)
	if err != nil {
		return p.a.fail(line, &ErrInclude{Path: tok.Text, Err: err})
	}
	if len(data) > SOURCE_LIMIT {
		return p.a.fail(line, ErrSourceSize)
	}

	p.a.depth++
	sub := &parser{a: p.a, lx: NewLexer(string(data))}
	err = sub.parseProgram()
	p.a.depth--
	return err
}
