package driver

// HostBinding pre-binds a symbolic name to an absolute address, so
// assembled programs can `call name` against functions the embedding
// environment exposes. The core encoder never sees the host ABI.
type HostBinding struct {
	Name string
	Addr uint32
}

// HostConstant pre-binds a symbolic name to a plain numeric value, the
// equivalent of an equ line at the top of every program.
type HostConstant struct {
	Name  string
	Value uint32
}

// DefaultConstants covers the Linux int 0x80 surface a freestanding
// ELF32 program needs, plus the standard descriptors.
var DefaultConstants = []HostConstant{
	{"SYS_EXIT", 1},
	{"SYS_FORK", 2},
	{"SYS_READ", 3},
	{"SYS_WRITE", 4},
	{"SYS_OPEN", 5},
	{"SYS_CLOSE", 6},
	{"SYS_LSEEK", 19},
	{"SYS_GETPID", 20},
	{"SYS_BRK", 45},
	{"SYS_NANOSLEEP", 162},

	{"STDIN", 0},
	{"STDOUT", 1},
	{"STDERR", 2},
}
