package simerrs

import "fmt"

// RangeError is returned when a memory access would read or write outside
// of a region's addressable range.
type RangeError struct {
	Region      string
	Addr        uint64
	Size        int
	Base        uint64
	RegionSize  uint64
}

// NewRangeError returns a new RangeError describing the out-of-range access.
func NewRangeError(region string, addr uint64, size int, base, regionSize uint64) *RangeError {
	return &RangeError{Region: region, Addr: addr, Size: size, Base: base, RegionSize: regionSize}
}

func (e *RangeError) Error() string {
	return fmt.Sprintf(
		"access out of range: region %q, addr=0x%x size=%d, valid=[0x%x,0x%x)",
		e.Region, e.Addr, e.Size, e.Base, e.Base+e.RegionSize,
	)
}

// PermissionError is returned when an access lacks the required
// permission flag on the target region.
type PermissionError struct {
	Region     string
	Addr       uint64
	Permission string
}

// NewPermissionError returns a new PermissionError for the given region/access.
func NewPermissionError(region string, addr uint64, permission string) *PermissionError {
	return &PermissionError{Region: region, Addr: addr, Permission: permission}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: region %q, addr=0x%x requires %s", e.Region, e.Addr, e.Permission)
}

// AlignmentError is returned when a width-aligned access is not aligned
// to its width.
type AlignmentError struct {
	Region string
	Addr   uint64
	Width  int
}

// NewAlignmentError returns a new AlignmentError for the given region/access.
func NewAlignmentError(region string, addr uint64, width int) *AlignmentError {
	return &AlignmentError{Region: region, Addr: addr, Width: width}
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("misaligned access: region %q, addr=0x%x not aligned to width %d", e.Region, e.Addr, e.Width)
}
