package monitor

import "github.com/deviceforge/devicesim/memio"

// Mode is the access-mode filter a Watchpoint matches against.
type Mode int

const (
	// ModeRead matches read accesses.
	ModeRead Mode = iota
	// ModeWrite matches write accesses.
	ModeWrite
	// ModeAccess matches read or write accesses.
	ModeAccess
	// ModeValueWrite matches write accesses whose zero-extended value
	// equals the Watchpoint's WPValue.
	ModeValueWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "READ"
	case ModeWrite:
		return "WRITE"
	case ModeAccess:
		return "ACCESS"
	case ModeValueWrite:
		return "VALUE_WRITE"
	default:
		return "UNKNOWN"
	}
}

// matches reports whether this mode is compatible with the given access
// type and, for ModeValueWrite, the accessed value.
func (m Mode) matches(accessType memio.AccessType, value, wpvalue uint64) bool {
	switch m {
	case ModeRead:
		return accessType == memio.AccessRead
	case ModeWrite:
		return accessType == memio.AccessWrite
	case ModeAccess:
		return accessType == memio.AccessRead || accessType == memio.AccessWrite
	case ModeValueWrite:
		return accessType == memio.AccessWrite && value == wpvalue
	default:
		return false
	}
}

// Watchpoint is an installed filter over (region, address range, mode
// [, value]) bound to an ordered list of action ids. Its id is stable,
// nonzero, and never reused within a run.
type Watchpoint struct {
	ID      uint32
	Region  *memio.Region
	Addr    uint64
	Size    int
	Mode    Mode
	WPValue uint64
	Enabled bool

	actions   []uint32
	actionSet map[uint32]struct{}
}

// overlaps reports whether the Watchpoint's [Addr, Addr+Size) span
// overlaps the accessed [addr, addr+size) span. Any overlap counts;
// containment is not required.
func (w *Watchpoint) overlaps(addr uint64, size int) bool {
	wpEnd := w.Addr + uint64(w.Size)
	accEnd := addr + uint64(size)
	return accEnd > w.Addr && addr < wpEnd
}

// Actions returns a snapshot of the watchpoint's bound action ids, in
// insertion order.
func (w *Watchpoint) Actions() []uint32 {
	out := make([]uint32, len(w.actions))
	copy(out, w.actions)
	return out
}
