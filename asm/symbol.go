package asm

// Section names the two disjoint output address spaces.
type Section int

//go:generate go tool stringer -linecomment -type=Section
const (
	SectionText = Section(0) // .text
	SectionData = Section(1) // .data
)

// Label binds a name to either a resolved address or, for equ, a pure
// numeric constant. A label referenced before its definition exists in
// the table with Defined unset until the defining line is reached.
type Label struct {
	Name     string
	Addr     uint32
	Defined  bool
	Constant bool
}

// Patch records a placeholder emitted for a not-yet-defined label:
// where it lives (section + offset), how wide it is (1 or 4 bytes), and
// whether the final value is relative to the site or absolute.
type Patch struct {
	Section  Section
	Offset   int
	Label    string
	Relative bool
	Width    int
	Line     int
}

// ref returns the table entry for name, creating an undefined one on
// first reference.
func (a *Assembly) ref(name string) *Label {
	lbl, ok := a.labels[name]
	if !ok {
		lbl = &Label{Name: name}
		a.labels[name] = lbl
	}
	return lbl
}

// define binds name to the current position of the active section and
// tracks the program entry point.
func (a *Assembly) define(name string, line int) error {
	lbl := a.ref(name)
	if lbl.Defined {
		return ErrLabelDuplicate(name)
	}
	lbl.Addr = a.addr()
	lbl.Defined = true

	if name == "main" || name == "_start" {
		if a.entrySet {
			return ErrEntryDuplicate
		}
		a.entry = a.cursor()
		a.entrySet = true
	}
	return nil
}

// defineConst binds name as an equ constant. Unlike code/data labels,
// constants may be rebound.
func (a *Assembly) defineConst(name string, value uint32) error {
	lbl := a.ref(name)
	if lbl.Defined && !lbl.Constant {
		return ErrLabelDuplicate(name)
	}
	lbl.Addr = value
	lbl.Defined = true
	lbl.Constant = true
	return nil
}

// Bind pre-registers a host symbol as a defined absolute address, so
// source can `call name` without linking.
func (a *Assembly) Bind(name string, addr uint32) {
	lbl := a.ref(name)
	lbl.Addr = addr
	lbl.Defined = true
}

// Define pre-registers a host numeric constant, equivalent to an equ
// line at the top of the source.
func (a *Assembly) Define(name string, value uint32) {
	lbl := a.ref(name)
	lbl.Addr = value
	lbl.Defined = true
	lbl.Constant = true
}

// Lookup reports the value bound to name, if any.
func (a *Assembly) Lookup(name string) (value uint32, ok bool) {
	lbl, ok := a.labels[name]
	if !ok || !lbl.Defined {
		return 0, false
	}
	return lbl.Addr, true
}
