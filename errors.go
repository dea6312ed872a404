package carve

import "github.com/cockroachdb/errors"

// OutOfMemoryError is the error returned from Manager.Alloc when the request
// cannot be satisfied, either because it exceeds the buffer's total capacity
// or because no single free block is large enough. Failed allocations leave
// the manager's state untouched.
var OutOfMemoryError error = errors.New("not enough contiguous free memory")

// OwnershipError is the error returned from Manager.Free when the allocation
// being freed is not currently tracked by this manager: a handle from another
// manager, a double-free, or a foreign value.
var OwnershipError error = errors.New("allocation is not owned by this manager")
