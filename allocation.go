package carve

import "math"

// AllocationHandle is a numeric handle used to identify individual
// allocations within a Manager. Handles are issued from a per-manager
// counter and are never derived from an allocation's content or position,
// so two allocations with identical bytes remain distinct.
type AllocationHandle uint64

const (
	// NoAllocation is the handle value reported for free regions when
	// enumerating a manager's regions.
	NoAllocation AllocationHandle = math.MaxUint64
)

// Allocation is a live, bounds-checked view over one reserved range of a
// Manager's buffer. It remains valid until passed to Manager.Free, at
// which point the view is detached and Bytes returns nil.
type Allocation struct {
	handle   AllocationHandle
	block    Block
	memory   []byte
	released bool
}

// Handle returns the identity token for this allocation.
func (a *Allocation) Handle() AllocationHandle {
	return a.handle
}

// Offset returns the allocation's starting offset within the buffer.
func (a *Allocation) Offset() int {
	return a.block.Offset
}

// Size returns the allocation's size in bytes. The size is retained after
// the allocation is freed.
func (a *Allocation) Size() int {
	return a.block.Size()
}

// Bytes returns the allocation's view into the buffer. Writes through the
// returned slice are writes to the underlying buffer. Returns nil once the
// allocation has been freed.
func (a *Allocation) Bytes() []byte {
	if a.released {
		return nil
	}
	return a.memory
}

// IsReleased reports whether this allocation has been freed.
func (a *Allocation) IsReleased() bool {
	return a.released
}
