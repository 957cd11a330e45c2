//go:build !(linux && 386)

package driver

// execute is only real on linux/386, where the emitted x86-32 code can
// run in the caller's address space. Everywhere else JIT mode is
// rejected; AOT output still works.
func execute(img *Image) error {
	return ErrExecUnsupported
}
