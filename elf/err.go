package elf

import (
	"errors"

	"github.com/cupidthecat/cupidasm/translate"
)

var f = translate.From

var (
	ErrNoCode     = errors.New(f("no code to write"))
	ErrAddrAlign  = errors.New(f("load addresses must be page-aligned"))
	ErrEntryRange = errors.New(f("entry point outside code"))
)
