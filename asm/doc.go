// Package asm implements the CupidASM x86-32 assembler core: a lexer
// with one token of look-ahead, a single-pass parser/encoder that emits
// machine code and data into separate section buffers, a label table
// with two-phase forward-reference resolution, and data/preprocessor
// directives (db/dw/dd, resb/resw/resd, times, equ, section, %include).
//
// The assembler targets a practical 32-bit x86 subset with Intel
// syntax. Output is flat, fixed-address code and data; there is no
// relocation. The driver package owns base addresses, host symbol
// bindings and the JIT/AOT dispatch.
package asm
