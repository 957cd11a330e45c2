// Copyright 2026, The cupid-os authors

// Package elf serializes assembled code and data buffers into a
// minimal ELF32 executable: one ELF header, a PT_LOAD program header
// for code (R+X) and, when data exists, a second PT_LOAD for data
// (R+W). Segments are flat and non-relocatable; virtual addresses are
// the configured load addresses.
package elf

import (
	"encoding/binary"
	"io"
	"os"
)

const (
	ehSize = 52 // ELF32 header
	phSize = 32 // ELF32 program header
	page   = 0x1000

	etExec = 2
	em386  = 3

	ptLoad = 1
	pfX    = 1
	pfW    = 2
	pfR    = 4
)

// Executable is the finished image handed over by the driver.
type Executable struct {
	Code     []byte
	Data     []byte
	Entry    uint32 // offset of the entry point into Code
	CodeAddr uint32 // virtual address Code is linked against
	DataAddr uint32 // virtual address Data is linked against
}

func alignUp(n int) int {
	return (n + page - 1) &^ (page - 1)
}

// Bytes lays the image out as header(s), padding, code, padding, data.
// Load addresses must be page-aligned so file offsets stay congruent
// with the virtual addresses a standard loader maps them at. The
// output is fully deterministic.
func (ex *Executable) Bytes() ([]byte, error) {
	if len(ex.Code) == 0 {
		return nil, ErrNoCode
	}
	if ex.CodeAddr%page != 0 || ex.DataAddr%page != 0 {
		return nil, ErrAddrAlign
	}
	if int(ex.Entry) >= len(ex.Code) {
		return nil, ErrEntryRange
	}

	phNum := 1
	if len(ex.Data) > 0 {
		phNum = 2
	}

	codeOffset := alignUp(ehSize + phNum*phSize)
	dataOffset := alignUp(codeOffset + len(ex.Code))

	total := codeOffset + len(ex.Code)
	if phNum == 2 {
		total = dataOffset + len(ex.Data)
	}

	out := make([]byte, total)
	put16 := binary.LittleEndian.PutUint16
	put32 := binary.LittleEndian.PutUint32

	// ELF header
	out[0] = 0x7f
	out[1] = 'E'
	out[2] = 'L'
	out[3] = 'F'
	out[4] = 1 // ELFCLASS32
	out[5] = 1 // ELFDATA2LSB
	out[6] = 1 // EV_CURRENT
	put16(out[16:], etExec)
	put16(out[18:], em386)
	put32(out[20:], 1) // e_version
	put32(out[24:], ex.CodeAddr+ex.Entry)
	put32(out[28:], ehSize) // e_phoff
	put32(out[32:], 0)      // e_shoff: no sections
	put32(out[36:], 0)      // e_flags
	put16(out[40:], ehSize)
	put16(out[42:], phSize)
	put16(out[44:], uint16(phNum))
	put16(out[46:], 0) // e_shentsize
	put16(out[48:], 0) // e_shnum
	put16(out[50:], 0) // e_shstrndx

	// PT_LOAD: code, R+X
	ph := out[ehSize:]
	put32(ph[0:], ptLoad)
	put32(ph[4:], uint32(codeOffset))
	put32(ph[8:], ex.CodeAddr)
	put32(ph[12:], ex.CodeAddr)
	put32(ph[16:], uint32(len(ex.Code)))
	put32(ph[20:], uint32(len(ex.Code)))
	put32(ph[24:], pfR|pfX)
	put32(ph[28:], page)

	if phNum == 2 {
		// PT_LOAD: data, R+W
		ph = out[ehSize+phSize:]
		put32(ph[0:], ptLoad)
		put32(ph[4:], uint32(dataOffset))
		put32(ph[8:], ex.DataAddr)
		put32(ph[12:], ex.DataAddr)
		put32(ph[16:], uint32(len(ex.Data)))
		put32(ph[20:], uint32(len(ex.Data)))
		put32(ph[24:], pfR|pfW)
		put32(ph[28:], page)
	}

	copy(out[codeOffset:], ex.Code)
	if phNum == 2 {
		copy(out[dataOffset:], ex.Data)
	}

	return out, nil
}

// WriteTo serializes the image to w in a single pass.
func (ex *Executable) WriteTo(w io.Writer) (int64, error) {
	bs, err := ex.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	return int64(n), err
}

// WriteFile persists the image as an executable file. The write is
// best-effort in one pass; callers wanting atomicity can write to a
// temporary path and rename.
func (ex *Executable) WriteFile(path string) error {
	bs, err := ex.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o755)
}
