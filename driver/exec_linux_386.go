//go:build linux && 386

package driver

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const stackCanary = 0x5AFE57AC

// mapFixed maps an anonymous read-write arena exactly at addr. MMAP2
// is used directly because the wrapped Mmap cannot request a fixed
// placement address.
func mapFixed(addr uint32, length int) ([]byte, error) {
	size := (length + 0xfff) &^ 0xfff
	r, _, errno := unix.Syscall6(unix.SYS_MMAP2,
		uintptr(addr), uintptr(size),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED),
		^uintptr(0), 0)
	if errno != 0 || r != uintptr(addr) {
		return nil, ErrExecMap
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(r)), size), nil
}

// execute copies the image to its linked addresses, flips the code
// arena to R+X and calls straight into the entry point. There is no
// isolation between the assembler and the assembled program: it runs
// in this process, at this privilege. A canary write brackets the
// call; a program that does not return does not return.
func execute(img *Image) error {
	code, err := mapFixed(img.CodeBase, len(img.Code))
	if err != nil {
		return err
	}
	defer unix.Munmap(code)
	copy(code, img.Code)

	if len(img.Data) > 0 {
		data, err := mapFixed(img.DataBase, len(img.Data))
		if err != nil {
			return err
		}
		defer unix.Munmap(data)
		copy(data, img.Data)
	}

	if err := unix.Mprotect(code, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return ErrExecMap
	}

	canary := uint32(stackCanary)
	entry := uintptr(img.CodeBase + img.Entry)
	fp := unsafe.Pointer(&entry)
	fn := *(*func())(unsafe.Pointer(&fp))
	fn()
	if canary != stackCanary {
		return ErrStackCheck
	}
	return nil
}
