// Copyright 2026, The cupid-os authors

package asm

import (
	"encoding/binary"
)

const (
	CODE_LIMIT    = 512 * 1024 // Code buffer ceiling
	DATA_LIMIT    = 512 * 1024 // Data buffer ceiling
	SOURCE_LIMIT  = 256 * 1024 // Largest accepted source file
	INCLUDE_LIMIT = 8          // Deepest %include nesting
)

// Assembly owns all state of one assembly request: the code and data
// buffers, their load addresses, the label table, the outstanding patch
// list and the sticky first error. Build one, Parse into it, Resolve,
// then read the buffers out. It is not reused.
type Assembly struct {
	// CodeBase and DataBase are the virtual addresses the two
	// sections are linked against. They must be set before parsing.
	CodeBase uint32
	DataBase uint32

	// ReadFile loads %include targets. A nil ReadFile makes any
	// %include an error.
	ReadFile func(path string) ([]byte, error)

	code     []byte
	data     []byte
	section  Section
	labels   map[string]*Label
	patches  []Patch
	entry    int
	entrySet bool
	depth    int
	err      error
}

// New returns an empty Assembly linked against the given base addresses.
func New(codeBase, dataBase uint32) *Assembly {
	return &Assembly{
		CodeBase: codeBase,
		DataBase: dataBase,
		labels:   make(map[string]*Label),
	}
}

// Code returns the emitted text-section bytes.
func (a *Assembly) Code() []byte { return a.code }

// Data returns the emitted data-section bytes.
func (a *Assembly) Data() []byte { return a.data }

// Entry returns the entry point as an offset into the code buffer.
func (a *Assembly) Entry() int { return a.entry }

// Err returns the sticky first error, if any.
func (a *Assembly) Err() error { return a.err }

// fail records the first error, tagged with its source line. Every
// later emission becomes a no-op.
func (a *Assembly) fail(line int, err error) error {
	if a.err == nil {
		a.err = &ErrSyntax{LineNo: line, Err: err}
	}
	return a.err
}

// cursor is the write position of the active section.
func (a *Assembly) cursor() int {
	if a.section == SectionData {
		return len(a.data)
	}
	return len(a.code)
}

// addr is the virtual address of the active section's write position.
func (a *Assembly) addr() uint32 {
	if a.section == SectionData {
		return a.DataBase + uint32(len(a.data))
	}
	return a.CodeBase + uint32(len(a.code))
}

// emit appends bytes to the active section, enforcing the buffer
// ceilings. Emission after an error is a no-op.
func (a *Assembly) emit(line int, bs ...byte) {
	if a.err != nil {
		return
	}
	if a.section == SectionData {
		if len(a.data)+len(bs) > DATA_LIMIT {
			a.fail(line, ErrDataFull)
			return
		}
		a.data = append(a.data, bs...)
		return
	}
	if len(a.code)+len(bs) > CODE_LIMIT {
		a.fail(line, ErrCodeFull)
		return
	}
	a.code = append(a.code, bs...)
}

func (a *Assembly) emit16(line int, v uint16) {
	a.emit(line, byte(v), byte(v>>8))
}

func (a *Assembly) emit32(line int, v uint32) {
	a.emit(line, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// patch emits a zero placeholder of the given width at the current
// position and records it for the resolution pass.
func (a *Assembly) patch(line int, name string, relative bool, width int) {
	if a.err != nil {
		return
	}
	a.ref(name)
	a.patches = append(a.patches, Patch{
		Section:  a.section,
		Offset:   a.cursor(),
		Label:    name,
		Relative: relative,
		Width:    width,
		Line:     line,
	})
	if width == 1 {
		a.emit(line, 0)
	} else {
		a.emit32(line, 0)
	}
}

// Resolve performs the second phase of forward-reference resolution:
// every recorded patch is overwritten in place with the absolute label
// address or, for branches, target - (site + width). Labels still
// undefined here are fatal, as is a rel8 displacement that no longer
// fits; the short-jump distance is only knowable once all intervening
// code exists, which is why this check lives here and not in the
// encoder.
func (a *Assembly) Resolve() error {
	if a.err != nil {
		return a.err
	}
	for _, p := range a.patches {
		lbl := a.labels[p.Label]
		if lbl == nil || !lbl.Defined {
			return a.fail(p.Line, ErrLabelUndefined(p.Label))
		}

		buf := a.code
		site := a.CodeBase + uint32(p.Offset)
		if p.Section == SectionData {
			buf = a.data
			site = a.DataBase + uint32(p.Offset)
		}

		value := int64(lbl.Addr)
		if p.Relative {
			value -= int64(site) + int64(p.Width)
		}

		if p.Width == 1 {
			if value < -128 || value > 127 {
				return a.fail(p.Line, ErrShortJumpRange)
			}
			buf[p.Offset] = byte(value)
		} else {
			binary.LittleEndian.PutUint32(buf[p.Offset:], uint32(value))
		}
	}
	if !a.entrySet {
		a.err = ErrEntryMissing
		return a.err
	}
	return nil
}
