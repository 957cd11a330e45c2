// Copyright 2026, The cupid-os authors

package driver

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cupidthecat/cupidasm/asm"
	"github.com/cupidthecat/cupidasm/elf"
	"github.com/cupidthecat/cupidasm/internal"
)

const (
	CODE_BASE = 0x08049000 // Default .text load address
	DATA_BASE = 0x080C9000 // Default .data load address
)

// Driver owns the per-assembly configuration: load addresses, the host
// symbol tables pre-seeded into the label table, and the file reader
// behind %include. The zero value is not useful; call New.
type Driver struct {
	CodeBase  uint32
	DataBase  uint32
	Bindings  []HostBinding
	Constants []HostConstant

	// ReadFile loads the top-level source and %include targets.
	ReadFile func(path string) ([]byte, error)

	// Verbose enables debug logging of assembly results.
	Verbose bool
}

// New returns a driver with the default bases, the built-in constant
// table and direct filesystem reads.
func New() *Driver {
	return &Driver{
		CodeBase:  CODE_BASE,
		DataBase:  DATA_BASE,
		Constants: DefaultConstants,
		ReadFile:  os.ReadFile,
	}
}

// Image is the finished result of one successful assembly. It is
// read-only from here on: the execution path and the ELF writer both
// consume it as-is.
type Image struct {
	Code     []byte
	Data     []byte
	Entry    uint32
	CodeBase uint32
	DataBase uint32
}

// Assemble reads and assembles one source file. Each call builds fresh
// state and discards it; nothing is shared between invocations. On any
// error the partial buffers are dropped and only the error survives.
func (d *Driver) Assemble(path string) (img *Image, err error) {
	src, err := d.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(src) > asm.SOURCE_LIMIT {
		return nil, asm.ErrSourceSize
	}

	a := asm.New(d.CodeBase, d.DataBase)
	a.ReadFile = d.ReadFile

	for _, bind := range d.Bindings {
		a.Bind(bind.Name, bind.Addr)
	}
	for _, c := range d.Constants {
		a.Define(c.Name, c.Value)
	}

	if err = a.ParseSource(string(src)); err != nil {
		return nil, err
	}
	if err = a.Resolve(); err != nil {
		return nil, err
	}

	// The emitters bound every byte already; re-check the whole
	// buffers before anything downstream trusts them.
	if len(a.Code()) > asm.CODE_LIMIT || len(a.Data()) > asm.DATA_LIMIT {
		return nil, ErrImageSize
	}

	img = &Image{
		Code:     a.Code(),
		Data:     a.Data(),
		Entry:    uint32(a.Entry()),
		CodeBase: d.CodeBase,
		DataBase: d.DataBase,
	}

	if d.Verbose {
		logrus.WithFields(logrus.Fields{
			"source": path,
			"code":   len(img.Code),
			"data":   len(img.Data),
			"entry":  img.Entry,
		}).Debug("assembled")
		logrus.Debugf("code: %s", internal.Hexdump(img.Code, 32))
	}

	return img, nil
}

// Exec runs an assembled image in-process at its linked addresses. A
// program that does not return does not return.
func (d *Driver) Exec(img *Image) error {
	return execute(img)
}

// Run assembles path and executes the result.
func (d *Driver) Run(path string) error {
	img, err := d.Assemble(path)
	if err != nil {
		return err
	}
	return d.Exec(img)
}

// Write persists img as an ELF32 executable at out.
func (d *Driver) Write(img *Image, out string) error {
	ex := &elf.Executable{
		Code:     img.Code,
		Data:     img.Data,
		Entry:    img.Entry,
		CodeAddr: img.CodeBase,
		DataAddr: img.DataBase,
	}
	return ex.WriteFile(out)
}

// Build assembles path and persists an ELF32 executable at out. No
// file is written on any assembly error.
func (d *Driver) Build(path, out string) error {
	img, err := d.Assemble(path)
	if err != nil {
		return err
	}
	return d.Write(img, out)
}
