package driver

import (
	"errors"

	"github.com/cupidthecat/cupidasm/translate"
)

var f = translate.From

var (
	ErrImageSize       = errors.New(f("assembled image exceeds size limits"))
	ErrExecUnsupported = errors.New(f("in-process execution requires linux/386"))
	ErrExecMap         = errors.New(f("cannot map execution arena"))
	ErrStackCheck      = errors.New(f("stack integrity check failed after execution"))
)
