// Copyright 2026, The cupid-os authors

package asm

// Instruction encoding: each encoder turns parsed operands into opcode
// byte(s), an optional ModRM byte, an optional SIB byte, an optional
// displacement and an optional immediate, appended to the active
// section buffer.

type operandKind int

const (
	operandReg operandKind = iota
	operandImm
	operandMem
)

// operand is one resolved instruction operand. An immediate that names
// an undefined label carries the name in label and a zero imm; the
// encoder emits a placeholder and records a patch for it.
type operand struct {
	kind  operandKind
	reg   byte
	width int

	imm     int64
	label   string
	isLabel bool

	hasBase   bool
	base      byte
	hasIndex  bool
	index     byte
	scale     byte
	disp      int32
	dispLabel string
	dispIsLbl bool
}

func modRM(mod, reg, rm byte) byte {
	return mod<<6 | reg<<3 | rm
}

func sibByte(scale, index, base byte) byte {
	return scale<<6 | index<<3 | base
}

func scaleBits(scale byte) (byte, bool) {
	switch scale {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 4:
		return 2, true
	case 8:
		return 3, true
	}
	return 0, false
}

func fitsInt8(v int64) bool {
	return v >= -128 && v <= 127
}

// parseOperand reads one operand: register, immediate (number, char,
// $() expression or label), or a bracketed memory form.
func (p *parser) parseOperand(line int) (op operand, err error) {
	tok := p.lx.Next()
	switch tok.Kind {
	case TokenRegister:
		op.kind = operandReg
		op.reg = tok.Reg
		op.width = tok.Width
		return

	case TokenNumber:
		op.kind = operandImm
		op.imm = tok.Value
		return

	case TokenMinus:
		tok = p.lx.Next()
		if tok.Kind != TokenNumber {
			err = ErrTokenUnexpected(tok)
			return
		}
		op.kind = operandImm
		op.imm = -tok.Value
		return

	case TokenExpr:
		var value uint32
		value, err = p.a.evalExpr(tok.Text)
		if err != nil {
			return
		}
		op.kind = operandImm
		op.imm = int64(value)
		return

	case TokenIdent:
		op.kind = operandImm
		lbl := p.a.ref(tok.Text)
		if lbl.Defined {
			op.imm = int64(lbl.Addr)
			op.isLabel = !lbl.Constant
		} else {
			op.label = tok.Text
			op.isLabel = true
		}
		return

	case TokenLBracket:
		return p.parseMem(line)

	case TokenString:
		err = ErrStringInvalid
		return
	}

	err = ErrTokenUnexpected(tok)
	return
}

// parseMem reads the inside of a [ ... ] memory operand: an optional
// base register, an optional index register with scale, and a signed
// displacement built from numbers, constants and at most one label.
func (p *parser) parseMem(line int) (op operand, err error) {
	op.kind = operandMem
	op.scale = 1

	sign := int64(1)
	for {
		tok := p.lx.Next()
		switch tok.Kind {
		case TokenRegister:
			if tok.Width != 4 || sign < 0 {
				err = ErrOperandInvalid
				return
			}
			reg := tok.Reg
			scale := byte(1)
			if p.lx.Peek().Kind == TokenStar {
				p.lx.Next()
				num := p.lx.Next()
				if num.Kind != TokenNumber {
					err = ErrScaleInvalid
					return
				}
				if _, ok := scaleBits(byte(num.Value)); !ok || num.Value > 8 {
					err = ErrScaleInvalid
					return
				}
				scale = byte(num.Value)
			}
			switch {
			case scale == 1 && !op.hasBase:
				op.hasBase = true
				op.base = reg
			case !op.hasIndex:
				op.hasIndex = true
				op.index = reg
				op.scale = scale
			default:
				err = ErrOperandInvalid
				return
			}

		case TokenNumber:
			op.disp += int32(sign * tok.Value)

		case TokenExpr:
			var value uint32
			value, err = p.a.evalExpr(tok.Text)
			if err != nil {
				return
			}
			op.disp += int32(sign) * int32(value)

		case TokenIdent:
			lbl := p.a.ref(tok.Text)
			switch {
			case lbl.Defined && lbl.Constant:
				op.disp += int32(sign) * int32(lbl.Addr)
			case lbl.Defined:
				op.disp += int32(sign) * int32(lbl.Addr)
				op.dispIsLbl = true
			default:
				if sign < 0 || op.dispLabel != "" {
					err = ErrOperandInvalid
					return
				}
				op.dispLabel = tok.Text
			}

		default:
			err = ErrTokenUnexpected(tok)
			return
		}
		tok = p.lx.Next()
		switch tok.Kind {
		case TokenRBracket:
			return
		case TokenPlus:
			sign = 1
		case TokenMinus:
			sign = -1
		default:
			err = ErrBracketMissing
			return
		}
	}
}

// emitMemDisp32 writes the 32-bit displacement of a memory operand,
// as a patch when it names an undefined label.
func (p *parser) emitMemDisp32(line int, rm *operand) {
	if rm.dispLabel != "" {
		p.a.patch(line, rm.dispLabel, false, 4)
		return
	}
	p.a.emit32(line, uint32(rm.disp))
}

// emitModRM writes the ModRM byte, and any SIB byte and displacement,
// for the given reg field and r/m operand.
//
// The x86-32 corner cases live here: [disp32] with no base register is
// mod=00 rm=101; an ESP base cannot be named in rm and forces a SIB
// byte; an EBP base with no displacement must take an explicit disp8=0
// because mod=00 rm=101 already means pure-displacement addressing.
func (p *parser) emitModRM(line int, reg byte, rm *operand) error {
	a := p.a
	if rm.kind == operandReg {
		a.emit(line, modRM(3, reg, rm.reg))
		return nil
	}

	if rm.hasIndex && rm.index == 4 {
		return ErrIndexInvalid
	}
	sc, _ := scaleBits(rm.scale)

	if !rm.hasBase && !rm.hasIndex {
		a.emit(line, modRM(0, reg, 5))
		p.emitMemDisp32(line, rm)
		return nil
	}

	if !rm.hasBase {
		// Index without base: SIB with base=101 and mod=00 takes a
		// mandatory disp32.
		a.emit(line, modRM(0, reg, 4), sibByte(sc, rm.index, 5))
		p.emitMemDisp32(line, rm)
		return nil
	}

	needSIB := rm.hasIndex || rm.base == 4

	var mod byte
	switch {
	case rm.dispLabel != "" || rm.dispIsLbl:
		mod = 2
	case rm.disp == 0 && rm.base != 5:
		mod = 0
	case fitsInt8(int64(rm.disp)):
		mod = 1
	default:
		mod = 2
	}

	rmField := rm.base
	if needSIB {
		rmField = 4
	}
	a.emit(line, modRM(mod, reg, rmField))
	if needSIB {
		index := byte(4) // no index
		if rm.hasIndex {
			index = rm.index
		}
		a.emit(line, sibByte(sc, index, rm.base))
	}

	switch mod {
	case 1:
		a.emit(line, byte(rm.disp))
	case 2:
		p.emitMemDisp32(line, rm)
	}
	return nil
}

// emitImm32 writes a 32-bit immediate, as an absolute patch when the
// operand names an undefined label.
func (p *parser) emitImm32(line int, op *operand) {
	if op.label != "" {
		p.a.patch(line, op.label, false, 4)
		return
	}
	p.a.emit32(line, uint32(op.imm))
}

// emitRel32 writes a rel32 branch displacement. The displacement is
// relative to the address immediately after the instruction.
func (p *parser) emitRel32(line int, op *operand) {
	if op.label != "" {
		p.a.patch(line, op.label, true, 4)
		return
	}
	rel := op.imm - (int64(p.a.addr()) + 4)
	p.a.emit32(line, uint32(int32(rel)))
}

// emitRel8 writes a rel8 branch displacement, range-checking targets
// that are already resolved. Forward targets get re-checked by Resolve.
func (p *parser) emitRel8(line int, op *operand) error {
	if op.label != "" {
		p.a.patch(line, op.label, true, 1)
		return nil
	}
	rel := op.imm - (int64(p.a.addr()) + 1)
	if !fitsInt8(rel) {
		return ErrShortJumpRange
	}
	p.a.emit(line, byte(rel))
	return nil
}

// constImm requires a fully resolved immediate, for positions that
// cannot hold a patch (ports, shift counts, interrupt vectors).
func constImm(op *operand) (int64, error) {
	if op.kind != operandImm || op.label != "" {
		return 0, ErrOperandInvalid
	}
	return op.imm, nil
}

// prefix16 emits the operand-size override for 16-bit forms.
func (p *parser) prefix16(line int, width int) {
	if width == 2 {
		p.a.emit(line, 0x66)
	}
}

func immFitsWidth(v int64, width int) bool {
	switch width {
	case 1:
		return v >= -128 && v <= 0xff
	case 2:
		return v >= -32768 && v <= 0xffff
	}
	return v >= -int64(0x80000000) && v <= 0xffffffff
}

// encodeInstruction dispatches one mnemonic statement to its class
// encoder. The leading mnemonic token has already been consumed.
func (p *parser) encodeInstruction(spec *OpSpec, line int) error {
	switch spec.Class {
	case OpNone:
		p.a.emit(line, spec.Fixed...)
		return nil
	case OpPush:
		return p.encodePush(line)
	case OpPop:
		return p.encodePop(line)
	case OpMov:
		return p.encodeMov(line)
	case OpLea:
		return p.encodeLea(line)
	case OpXchg:
		return p.encodeXchg(line)
	case OpMovx:
		return p.encodeMovx(spec, line)
	case OpCall:
		return p.encodeCall(line)
	case OpJmp:
		return p.encodeJmp(line)
	case OpJcc:
		return p.encodeJcc(spec, line)
	case OpIncDec:
		return p.encodeIncDec(spec, line)
	case OpUnary:
		return p.encodeUnary(spec, line)
	case OpInt:
		return p.encodeInt(line)
	case OpIn:
		return p.encodeIn(line)
	case OpOut:
		return p.encodeOut(line)
	case OpAlu:
		return p.encodeAlu(spec, line)
	case OpTest:
		return p.encodeTest(line)
	case OpShift:
		return p.encodeShift(spec, line)
	}
	return ErrStatementInvalid
}

// comma consumes the operand separator.
func (p *parser) comma() error {
	if tok := p.lx.Next(); tok.Kind != TokenComma {
		return ErrCommaMissing
	}
	return nil
}

func (p *parser) encodePush(line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	switch op.kind {
	case operandReg:
		if op.width != 4 {
			return ErrOperandWidth
		}
		p.a.emit(line, 0x50+op.reg)
	case operandImm:
		if op.label != "" || op.isLabel {
			p.a.emit(line, 0x68)
			p.emitImm32(line, &op)
		} else if fitsInt8(op.imm) {
			p.a.emit(line, 0x6A, byte(op.imm))
		} else {
			p.a.emit(line, 0x68)
			p.a.emit32(line, uint32(op.imm))
		}
	case operandMem:
		p.a.emit(line, 0xFF)
		return p.emitModRM(line, 6, &op)
	}
	return nil
}

func (p *parser) encodePop(line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	switch op.kind {
	case operandReg:
		if op.width != 4 {
			return ErrOperandWidth
		}
		p.a.emit(line, 0x58+op.reg)
	case operandMem:
		p.a.emit(line, 0x8F)
		return p.emitModRM(line, 0, &op)
	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeMov(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	switch {
	case dst.kind == operandReg && src.kind == operandReg:
		if dst.width != src.width {
			return ErrOperandWidth
		}
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, 0x88, modRM(3, src.reg, dst.reg))
		} else {
			p.a.emit(line, 0x89, modRM(3, src.reg, dst.reg))
		}

	case dst.kind == operandReg && src.kind == operandImm:
		if src.label != "" || src.isLabel {
			if dst.width != 4 {
				return ErrOperandWidth
			}
			p.a.emit(line, 0xB8+dst.reg)
			p.emitImm32(line, &src)
			return nil
		}
		if !immFitsWidth(src.imm, dst.width) {
			return ErrImmediateRange
		}
		switch dst.width {
		case 1:
			p.a.emit(line, 0xB0+dst.reg, byte(src.imm))
		case 2:
			p.a.emit(line, 0x66, 0xB8+dst.reg)
			p.a.emit16(line, uint16(src.imm))
		default:
			p.a.emit(line, 0xB8+dst.reg)
			p.a.emit32(line, uint32(src.imm))
		}

	case dst.kind == operandReg && src.kind == operandMem:
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, 0x8A)
		} else {
			p.a.emit(line, 0x8B)
		}
		return p.emitModRM(line, dst.reg, &src)

	case dst.kind == operandMem && src.kind == operandReg:
		p.prefix16(line, src.width)
		if src.width == 1 {
			p.a.emit(line, 0x88)
		} else {
			p.a.emit(line, 0x89)
		}
		return p.emitModRM(line, src.reg, &dst)

	case dst.kind == operandMem && src.kind == operandImm:
		// Unsized memory stores default to dword.
		p.a.emit(line, 0xC7)
		if err = p.emitModRM(line, 0, &dst); err != nil {
			return err
		}
		p.emitImm32(line, &src)

	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeLea(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if dst.kind != operandReg || dst.width != 4 || src.kind != operandMem {
		return ErrOperandInvalid
	}
	p.a.emit(line, 0x8D)
	return p.emitModRM(line, dst.reg, &src)
}

func (p *parser) encodeXchg(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	switch {
	case dst.kind == operandReg && src.kind == operandReg:
		if dst.width != src.width {
			return ErrOperandWidth
		}
		if dst.width == 4 && dst.reg == 0 {
			p.a.emit(line, 0x90+src.reg)
			return nil
		}
		if dst.width == 4 && src.reg == 0 {
			p.a.emit(line, 0x90+dst.reg)
			return nil
		}
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, 0x86, modRM(3, src.reg, dst.reg))
		} else {
			p.a.emit(line, 0x87, modRM(3, src.reg, dst.reg))
		}

	case dst.kind == operandReg && src.kind == operandMem:
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, 0x86)
		} else {
			p.a.emit(line, 0x87)
		}
		return p.emitModRM(line, dst.reg, &src)

	case dst.kind == operandMem && src.kind == operandReg:
		p.prefix16(line, src.width)
		if src.width == 1 {
			p.a.emit(line, 0x86)
		} else {
			p.a.emit(line, 0x87)
		}
		return p.emitModRM(line, src.reg, &dst)

	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeMovx(spec *OpSpec, line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if dst.kind != operandReg || dst.width != 4 {
		return ErrOperandInvalid
	}

	opcode := spec.Base // byte source form
	switch src.kind {
	case operandReg:
		switch src.width {
		case 1:
		case 2:
			opcode++
		default:
			return ErrOperandWidth
		}
	case operandMem:
		// Unsized memory sources widen from a byte.
	default:
		return ErrOperandInvalid
	}
	p.a.emit(line, 0x0F, opcode)
	return p.emitModRM(line, dst.reg, &src)
}

func (p *parser) encodeCall(line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	switch op.kind {
	case operandImm:
		p.a.emit(line, 0xE8)
		p.emitRel32(line, &op)
	case operandReg:
		if op.width != 4 {
			return ErrOperandWidth
		}
		p.a.emit(line, 0xFF, modRM(3, 2, op.reg))
	case operandMem:
		p.a.emit(line, 0xFF)
		return p.emitModRM(line, 2, &op)
	}
	return nil
}

func (p *parser) encodeJmp(line int) error {
	// "jmp short target" selects the rel8 form.
	if tok := p.lx.Peek(); tok.Kind == TokenDirective && tok.Dir == DirShort {
		p.lx.Next()
		op, err := p.parseOperand(line)
		if err != nil {
			return err
		}
		if op.kind != operandImm {
			return ErrOperandInvalid
		}
		p.a.emit(line, 0xEB)
		return p.emitRel8(line, &op)
	}

	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	switch op.kind {
	case operandImm:
		p.a.emit(line, 0xE9)
		p.emitRel32(line, &op)
	case operandReg:
		if op.width != 4 {
			return ErrOperandWidth
		}
		p.a.emit(line, 0xFF, modRM(3, 4, op.reg))
	case operandMem:
		p.a.emit(line, 0xFF)
		return p.emitModRM(line, 4, &op)
	}
	return nil
}

func (p *parser) encodeJcc(spec *OpSpec, line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if op.kind != operandImm {
		return ErrOperandInvalid
	}
	p.a.emit(line, 0x0F, 0x80+spec.Cond)
	p.emitRel32(line, &op)
	return nil
}

func (p *parser) encodeIncDec(spec *OpSpec, line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	switch op.kind {
	case operandReg:
		switch op.width {
		case 4:
			p.a.emit(line, 0x40+spec.Digit*8+op.reg)
		case 2:
			p.a.emit(line, 0x66, 0xFF, modRM(3, spec.Digit, op.reg))
		default:
			p.a.emit(line, 0xFE, modRM(3, spec.Digit, op.reg))
		}
	case operandMem:
		p.a.emit(line, 0xFF)
		return p.emitModRM(line, spec.Digit, &op)
	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeUnary(spec *OpSpec, line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	// Two-operand imul: 0F AF /r.
	if spec.Name == "imul" && p.lx.Peek().Kind == TokenComma {
		p.lx.Next()
		src, err := p.parseOperand(line)
		if err != nil {
			return err
		}
		if op.kind != operandReg || op.width != 4 {
			return ErrOperandInvalid
		}
		switch src.kind {
		case operandReg:
			if src.width != 4 {
				return ErrOperandWidth
			}
		case operandMem:
		default:
			return ErrOperandInvalid
		}
		p.a.emit(line, 0x0F, 0xAF)
		return p.emitModRM(line, op.reg, &src)
	}

	switch op.kind {
	case operandReg:
		p.prefix16(line, op.width)
		if op.width == 1 {
			p.a.emit(line, 0xF6, modRM(3, spec.Digit, op.reg))
		} else {
			p.a.emit(line, 0xF7, modRM(3, spec.Digit, op.reg))
		}
	case operandMem:
		p.a.emit(line, 0xF7)
		return p.emitModRM(line, spec.Digit, &op)
	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeInt(line int) error {
	op, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	vector, err := constImm(&op)
	if err != nil {
		return err
	}
	if vector < 0 || vector > 0xFF {
		return ErrImmediateRange
	}
	p.a.emit(line, 0xCD, byte(vector))
	return nil
}

func (p *parser) encodeIn(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if dst.kind != operandReg || dst.reg != 0 || dst.width == 2 {
		return ErrOperandInvalid
	}

	wide := dst.width == 4
	if src.kind == operandReg {
		if src.reg != 2 || src.width != 2 {
			return ErrPortInvalid
		}
		if wide {
			p.a.emit(line, 0xED)
		} else {
			p.a.emit(line, 0xEC)
		}
		return nil
	}
	port, err := constImm(&src)
	if err != nil || port < 0 || port > 0xFF {
		return ErrPortInvalid
	}
	if wide {
		p.a.emit(line, 0xE5, byte(port))
	} else {
		p.a.emit(line, 0xE4, byte(port))
	}
	return nil
}

func (p *parser) encodeOut(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if src.kind != operandReg || src.reg != 0 || src.width == 2 {
		return ErrOperandInvalid
	}

	wide := src.width == 4
	if dst.kind == operandReg {
		if dst.reg != 2 || dst.width != 2 {
			return ErrPortInvalid
		}
		if wide {
			p.a.emit(line, 0xEF)
		} else {
			p.a.emit(line, 0xEE)
		}
		return nil
	}
	port, err := constImm(&dst)
	if err != nil || port < 0 || port > 0xFF {
		return ErrPortInvalid
	}
	if wide {
		p.a.emit(line, 0xE7, byte(port))
	} else {
		p.a.emit(line, 0xE6, byte(port))
	}
	return nil
}

// encodeAlu covers the shared add/or/adc/sbb/and/sub/xor/cmp family.
// Immediate forms prefer the 2-byte 83 /digit ib encoding when the
// immediate fits a signed byte, then the 1-opcode-byte EAX shortcut,
// then the general 81 /digit id form.
func (p *parser) encodeAlu(spec *OpSpec, line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	base := spec.Digit * 8

	switch {
	case dst.kind == operandReg && src.kind == operandReg:
		if dst.width != src.width {
			return ErrOperandWidth
		}
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, base, modRM(3, src.reg, dst.reg))
		} else {
			p.a.emit(line, base+1, modRM(3, src.reg, dst.reg))
		}

	case dst.kind == operandReg && src.kind == operandMem:
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, base+2)
		} else {
			p.a.emit(line, base+3)
		}
		return p.emitModRM(line, dst.reg, &src)

	case dst.kind == operandMem && src.kind == operandReg:
		p.prefix16(line, src.width)
		if src.width == 1 {
			p.a.emit(line, base)
		} else {
			p.a.emit(line, base+1)
		}
		return p.emitModRM(line, src.reg, &dst)

	case dst.kind == operandReg && src.kind == operandImm:
		if src.label != "" || src.isLabel {
			if dst.width != 4 {
				return ErrOperandWidth
			}
			p.a.emit(line, 0x81, modRM(3, spec.Digit, dst.reg))
			p.emitImm32(line, &src)
			return nil
		}
		if !immFitsWidth(src.imm, dst.width) {
			return ErrImmediateRange
		}
		switch {
		case dst.width == 1:
			p.a.emit(line, 0x80, modRM(3, spec.Digit, dst.reg), byte(src.imm))
		case fitsInt8(src.imm):
			p.prefix16(line, dst.width)
			p.a.emit(line, 0x83, modRM(3, spec.Digit, dst.reg), byte(src.imm))
		case dst.reg == 0:
			p.prefix16(line, dst.width)
			p.a.emit(line, base+5)
			if dst.width == 2 {
				p.a.emit16(line, uint16(src.imm))
			} else {
				p.a.emit32(line, uint32(src.imm))
			}
		default:
			p.prefix16(line, dst.width)
			p.a.emit(line, 0x81, modRM(3, spec.Digit, dst.reg))
			if dst.width == 2 {
				p.a.emit16(line, uint16(src.imm))
			} else {
				p.a.emit32(line, uint32(src.imm))
			}
		}

	case dst.kind == operandMem && src.kind == operandImm:
		// Unsized memory destinations default to dword.
		if src.label == "" && !src.isLabel && fitsInt8(src.imm) {
			p.a.emit(line, 0x83)
			if err = p.emitModRM(line, spec.Digit, &dst); err != nil {
				return err
			}
			p.a.emit(line, byte(src.imm))
			return nil
		}
		p.a.emit(line, 0x81)
		if err = p.emitModRM(line, spec.Digit, &dst); err != nil {
			return err
		}
		p.emitImm32(line, &src)

	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeTest(line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	switch {
	case dst.kind == operandReg && src.kind == operandReg:
		if dst.width != src.width {
			return ErrOperandWidth
		}
		p.prefix16(line, dst.width)
		if dst.width == 1 {
			p.a.emit(line, 0x84, modRM(3, src.reg, dst.reg))
		} else {
			p.a.emit(line, 0x85, modRM(3, src.reg, dst.reg))
		}

	case dst.kind == operandMem && src.kind == operandReg:
		p.prefix16(line, src.width)
		if src.width == 1 {
			p.a.emit(line, 0x84)
		} else {
			p.a.emit(line, 0x85)
		}
		return p.emitModRM(line, src.reg, &dst)

	case dst.kind == operandReg && src.kind == operandImm:
		value, err := constImm(&src)
		if err != nil {
			return err
		}
		if !immFitsWidth(value, dst.width) {
			return ErrImmediateRange
		}
		switch {
		case dst.width == 1 && dst.reg == 0:
			p.a.emit(line, 0xA8, byte(value))
		case dst.width == 1:
			p.a.emit(line, 0xF6, modRM(3, 0, dst.reg), byte(value))
		case dst.reg == 0:
			p.prefix16(line, dst.width)
			p.a.emit(line, 0xA9)
			if dst.width == 2 {
				p.a.emit16(line, uint16(value))
			} else {
				p.a.emit32(line, uint32(value))
			}
		default:
			p.prefix16(line, dst.width)
			p.a.emit(line, 0xF7, modRM(3, 0, dst.reg))
			if dst.width == 2 {
				p.a.emit16(line, uint16(value))
			} else {
				p.a.emit32(line, uint32(value))
			}
		}

	case dst.kind == operandMem && src.kind == operandImm:
		value, err := constImm(&src)
		if err != nil {
			return err
		}
		p.a.emit(line, 0xF7)
		if err = p.emitModRM(line, 0, &dst); err != nil {
			return err
		}
		p.a.emit32(line, uint32(value))

	default:
		return ErrOperandInvalid
	}
	return nil
}

func (p *parser) encodeShift(spec *OpSpec, line int) error {
	dst, err := p.parseOperand(line)
	if err != nil {
		return err
	}
	if err = p.comma(); err != nil {
		return err
	}
	src, err := p.parseOperand(line)
	if err != nil {
		return err
	}

	// Count is either CL or an immediate byte.
	byCL := false
	var count int64
	if src.kind == operandReg {
		if src.reg != 1 || src.width != 1 {
			return ErrShiftCount
		}
		byCL = true
	} else {
		count, err = constImm(&src)
		if err != nil || count < 0 || count > 0xFF {
			return ErrShiftCount
		}
	}

	switch dst.kind {
	case operandReg:
		p.prefix16(line, dst.width)
		narrow := dst.width == 1
		switch {
		case byCL && narrow:
			p.a.emit(line, 0xD2, modRM(3, spec.Digit, dst.reg))
		case byCL:
			p.a.emit(line, 0xD3, modRM(3, spec.Digit, dst.reg))
		case narrow:
			p.a.emit(line, 0xC0, modRM(3, spec.Digit, dst.reg), byte(count))
		default:
			p.a.emit(line, 0xC1, modRM(3, spec.Digit, dst.reg), byte(count))
		}
	case operandMem:
		if byCL {
			p.a.emit(line, 0xD3)
		} else {
			p.a.emit(line, 0xC1)
		}
		if err = p.emitModRM(line, spec.Digit, &dst); err != nil {
			return err
		}
		if !byCL {
			p.a.emit(line, byte(count))
		}
	default:
		return ErrOperandInvalid
	}
	return nil
}
