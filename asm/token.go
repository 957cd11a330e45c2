package asm

// TokenKind classifies a lexed token.
type TokenKind int

//go:generate go tool stringer -linecomment -type=TokenKind
const (
	TokenEOF       = TokenKind(0)  // eof
	TokenNewline   = TokenKind(1)  // newline
	TokenIdent     = TokenKind(2)  // identifier
	TokenNumber    = TokenKind(3)  // number
	TokenString    = TokenKind(4)  // string
	TokenExpr      = TokenKind(5)  // expression
	TokenRegister  = TokenKind(6)  // register
	TokenMnemonic  = TokenKind(7)  // mnemonic
	TokenDirective = TokenKind(8)  // directive
	TokenInclude   = TokenKind(9)  // %include
	TokenLBracket  = TokenKind(10) // [
	TokenRBracket  = TokenKind(11) // ]
	TokenPlus      = TokenKind(12) // +
	TokenMinus     = TokenKind(13) // -
	TokenStar      = TokenKind(14) // *
	TokenComma     = TokenKind(15) // ,
	TokenColon     = TokenKind(16) // :
	TokenError     = TokenKind(17) // error
)

// Directive is an assembler directive keyword.
type Directive int

//go:generate go tool stringer -linecomment -type=Directive
const (
	DirNone    = Directive(0)  // none
	DirDb      = Directive(1)  // db
	DirDw      = Directive(2)  // dw
	DirDd      = Directive(3)  // dd
	DirResb    = Directive(4)  // resb
	DirResw    = Directive(5)  // resw
	DirResd    = Directive(6)  // resd
	DirTimes   = Directive(7)  // times
	DirEqu     = Directive(8)  // equ
	DirSection = Directive(9)  // section
	DirShort   = Directive(10) // short
)

// Token is a single lexical element of the source. Width is the register
// operand width in bytes (1, 2 or 4) when Kind is TokenRegister.
type Token struct {
	Kind  TokenKind
	Text  string
	Value int64
	Reg   byte
	Width int
	Dir   Directive
	Op    *OpSpec
	Line  int
}

type regInfo struct {
	index byte
	width int
}

// Registers are matched case-insensitively and map onto index 0-7 plus
// an operand width.
var regMap = map[string]regInfo{
	"eax": {0, 4}, "ecx": {1, 4}, "edx": {2, 4}, "ebx": {3, 4},
	"esp": {4, 4}, "ebp": {5, 4}, "esi": {6, 4}, "edi": {7, 4},

	"ax": {0, 2}, "cx": {1, 2}, "dx": {2, 2}, "bx": {3, 2},
	"sp": {4, 2}, "bp": {5, 2}, "si": {6, 2}, "di": {7, 2},

	"al": {0, 1}, "cl": {1, 1}, "dl": {2, 1}, "bl": {3, 1},
	"ah": {4, 1}, "ch": {5, 1}, "dh": {6, 1}, "bh": {7, 1},
}

var dirMap = map[string]Directive{
	"db":      DirDb,
	"dw":      DirDw,
	"dd":      DirDd,
	"resb":    DirResb,
	"resw":    DirResw,
	"resd":    DirResd,
	"times":   DirTimes,
	"equ":     DirEqu,
	"section": DirSection,
	"short":   DirShort,
}

// OpClass selects the encoder family for a mnemonic. Classification
// happens once, in the lexer; the encoder only ever switches on the tag.
type OpClass int

//go:generate go tool stringer -linecomment -type=OpClass
const (
	OpNone   = OpClass(0)  // fixed
	OpPush   = OpClass(1)  // push
	OpPop    = OpClass(2)  // pop
	OpMov    = OpClass(3)  // mov
	OpLea    = OpClass(4)  // lea
	OpXchg   = OpClass(5)  // xchg
	OpMovx   = OpClass(6)  // movx
	OpCall   = OpClass(7)  // call
	OpJmp    = OpClass(8)  // jmp
	OpJcc    = OpClass(9)  // jcc
	OpIncDec = OpClass(10) // incdec
	OpUnary  = OpClass(11) // unary
	OpInt    = OpClass(12) // int
	OpIn     = OpClass(13) // in
	OpOut    = OpClass(14) // out
	OpAlu    = OpClass(15) // alu
	OpTest   = OpClass(16) // test
	OpShift  = OpClass(17) // shift
)

// OpSpec carries the per-mnemonic encoding data the class encoder needs:
// the literal byte sequence for fixed forms, the ModRM /digit for group
// forms, the base opcode for movzx/movsx, or the condition code for Jcc.
type OpSpec struct {
	Name  string
	Class OpClass
	Fixed []byte
	Digit byte
	Base  byte
	Cond  byte
}

var opMap = map[string]*OpSpec{
	// No-operand forms with a fixed encoding.
	"nop":   {Name: "nop", Class: OpNone, Fixed: []byte{0x90}},
	"ret":   {Name: "ret", Class: OpNone, Fixed: []byte{0xC3}},
	"leave": {Name: "leave", Class: OpNone, Fixed: []byte{0xC9}},
	"hlt":   {Name: "hlt", Class: OpNone, Fixed: []byte{0xF4}},
	"cli":   {Name: "cli", Class: OpNone, Fixed: []byte{0xFA}},
	"sti":   {Name: "sti", Class: OpNone, Fixed: []byte{0xFB}},
	"cld":   {Name: "cld", Class: OpNone, Fixed: []byte{0xFC}},
	"std":   {Name: "std", Class: OpNone, Fixed: []byte{0xFD}},
	"cwde":  {Name: "cwde", Class: OpNone, Fixed: []byte{0x98}},
	"cdq":   {Name: "cdq", Class: OpNone, Fixed: []byte{0x99}},
	"pusha": {Name: "pusha", Class: OpNone, Fixed: []byte{0x60}},
	"popa":  {Name: "popa", Class: OpNone, Fixed: []byte{0x61}},
	"pushf": {Name: "pushf", Class: OpNone, Fixed: []byte{0x9C}},
	"popf":  {Name: "popf", Class: OpNone, Fixed: []byte{0x9D}},
	"iret":  {Name: "iret", Class: OpNone, Fixed: []byte{0xCF}},
	"int3":  {Name: "int3", Class: OpNone, Fixed: []byte{0xCC}},

	"push": {Name: "push", Class: OpPush},
	"pop":  {Name: "pop", Class: OpPop},

	"mov":  {Name: "mov", Class: OpMov},
	"lea":  {Name: "lea", Class: OpLea},
	"xchg": {Name: "xchg", Class: OpXchg},

	"movzx": {Name: "movzx", Class: OpMovx, Base: 0xB6},
	"movsx": {Name: "movsx", Class: OpMovx, Base: 0xBE},

	"call": {Name: "call", Class: OpCall},
	"jmp":  {Name: "jmp", Class: OpJmp},

	"inc": {Name: "inc", Class: OpIncDec, Digit: 0},
	"dec": {Name: "dec", Class: OpIncDec, Digit: 1},

	// Group-3 single-operand forms (F6/F7 /digit).
	"not":  {Name: "not", Class: OpUnary, Digit: 2},
	"neg":  {Name: "neg", Class: OpUnary, Digit: 3},
	"mul":  {Name: "mul", Class: OpUnary, Digit: 4},
	"imul": {Name: "imul", Class: OpUnary, Digit: 5},
	"div":  {Name: "div", Class: OpUnary, Digit: 6},
	"idiv": {Name: "idiv", Class: OpUnary, Digit: 7},

	"int": {Name: "int", Class: OpInt},
	"in":  {Name: "in", Class: OpIn},
	"out": {Name: "out", Class: OpOut},

	// The shared ALU family; Digit is the /digit of the 80/81/83
	// immediate group and selects the /r opcodes as digit*8.
	"add": {Name: "add", Class: OpAlu, Digit: 0},
	"or":  {Name: "or", Class: OpAlu, Digit: 1},
	"adc": {Name: "adc", Class: OpAlu, Digit: 2},
	"sbb": {Name: "sbb", Class: OpAlu, Digit: 3},
	"and": {Name: "and", Class: OpAlu, Digit: 4},
	"sub": {Name: "sub", Class: OpAlu, Digit: 5},
	"xor": {Name: "xor", Class: OpAlu, Digit: 6},
	"cmp": {Name: "cmp", Class: OpAlu, Digit: 7},

	"test": {Name: "test", Class: OpTest},

	"rol": {Name: "rol", Class: OpShift, Digit: 0},
	"ror": {Name: "ror", Class: OpShift, Digit: 1},
	"shl": {Name: "shl", Class: OpShift, Digit: 4},
	"sal": {Name: "sal", Class: OpShift, Digit: 4},
	"shr": {Name: "shr", Class: OpShift, Digit: 5},
	"sar": {Name: "sar", Class: OpShift, Digit: 7},
}

func init() {
	for name, cc := range jccMap {
		opMap[name] = &OpSpec{Name: name, Class: OpJcc, Cond: cc}
	}
}

// Jcc condition codes (0F 80+cc). Aliases share a code.
var jccMap = map[string]byte{
	"jo": 0x0, "jno": 0x1,
	"jb": 0x2, "jc": 0x2, "jnae": 0x2,
	"jae": 0x3, "jnc": 0x3, "jnb": 0x3,
	"je": 0x4, "jz": 0x4,
	"jne": 0x5, "jnz": 0x5,
	"jbe": 0x6, "jna": 0x6,
	"ja": 0x7, "jnbe": 0x7,
	"js": 0x8, "jns": 0x9,
	"jp": 0xA, "jpe": 0xA,
	"jnp": 0xB, "jpo": 0xB,
	"jl": 0xC, "jnge": 0xC,
	"jge": 0xD, "jnl": 0xD,
	"jle": 0xE, "jng": 0xE,
	"jg": 0xF, "jnle": 0xF,
}
