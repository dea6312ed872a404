package carve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// ManagerOptions contains optional parameters for a new Manager.
type ManagerOptions struct {
	// Logger is used to report unreleased allocations during Destroy.
	// When nil, slog.Default() is used.
	Logger *slog.Logger
}

// Manager owns the bookkeeping for a single contiguous byte buffer: an
// ordered, maximally-coalesced list of free blocks and a handle-keyed
// table of live allocations. A single mutex guards both collections for
// the full duration of every operation, so no caller ever observes a
// mid-split or pre-coalesce state.
type Manager struct {
	mutex  sync.Mutex
	logger *slog.Logger

	memory     []byte
	freeBlocks []Block

	nextAllocationHandle AllocationHandle
	allocations          *swiss.Map[AllocationHandle, *Allocation]

	sumFreeSize     int
	allocationCount int
	allocationBytes int
}

// New creates a Manager over the provided buffer. The manager captures a
// reference to the buffer, without copying or zeroing its contents, and
// starts with a single free block spanning the entire buffer.
func New(buf []byte, options ManagerOptions) (*Manager, error) {
	if buf == nil {
		return nil, errors.New("a backing buffer is required")
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:      logger,
		memory:      buf,
		allocations: swiss.NewMap[AllocationHandle, *Allocation](42),
		sumFreeSize: len(buf),
	}

	// Zero-size blocks are never tracked, so a zero-length buffer starts
	// with an empty free list.
	if len(buf) > 0 {
		m.freeBlocks = []Block{{Offset: 0, End: len(buf)}}
	}

	return m, nil
}

// Size returns the total length in bytes of the managed buffer.
func (m *Manager) Size() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.memory)
}

// Alloc reserves a previously-unused range of exactly size bytes and
// returns a live handle over it. The first free block large enough to
// satisfy the request is chosen, in ascending offset order. Failed
// requests return an error matching OutOfMemoryError and mutate nothing.
//
// A size of 0 is permitted: the returned handle spans no bytes but is
// tracked like any other allocation and must still be freed.
func (m *Manager) Alloc(size int) (*Allocation, error) {
	if size < 0 {
		return nil, errors.Errorf("invalid allocation size %d", size)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.memory == nil {
		return nil, errors.New("this manager has been destroyed")
	}

	m.debugValidate()

	if size > len(m.memory) {
		return nil, errors.Wrapf(OutOfMemoryError, "requested size %d is greater than the buffer size %d", size, len(m.memory))
	}

	// The tracked range is the requested size plus the debug margin, which
	// is 0 outside debug builds.
	paddedSize := size + DebugMargin

	for blockIndex := 0; blockIndex < len(m.freeBlocks); blockIndex++ {
		freeBlock := m.freeBlocks[blockIndex]
		if freeBlock.Size() < paddedSize {
			continue
		}

		if freeBlock.Size() == paddedSize {
			m.freeBlocks = slices.Delete(m.freeBlocks, blockIndex, blockIndex+1)
		} else if paddedSize > 0 {
			// Split. The low bytes become the allocation, the remainder
			// keeps the free block's slot so the list stays sorted.
			m.freeBlocks[blockIndex] = Block{Offset: freeBlock.Offset + paddedSize, End: freeBlock.End}
		}

		handle := AllocationHandle(atomic.AddUint64((*uint64)(&m.nextAllocationHandle), 1))
		alloc := &Allocation{
			handle: handle,
			block:  Block{Offset: freeBlock.Offset, End: freeBlock.Offset + size},
			memory: m.memory[freeBlock.Offset : freeBlock.Offset+size : freeBlock.Offset+size],
		}

		m.allocations.Put(handle, alloc)
		m.sumFreeSize -= paddedSize
		m.allocationCount++
		m.allocationBytes += size

		if DebugMargin > 0 {
			writeMagicValue(m.memory, alloc.block.End)
		}

		return alloc, nil
	}

	return nil, errors.Wrapf(OutOfMemoryError, "could not allocate %d contiguous bytes", size)
}

// Free releases a previously-returned live allocation back to the pool and
// invalidates it. The freed range is re-inserted into the free list, the
// list is re-sorted by offset, and adjacent free blocks are merged so the
// list stays maximally coalesced.
//
// Allocations from another manager, already-freed allocations, and foreign
// values fail with an error matching OwnershipError and mutate nothing.
func (m *Manager) Free(alloc *Allocation) error {
	if alloc == nil {
		return errors.Wrap(OwnershipError, "received a nil allocation")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.memory == nil {
		return errors.New("this manager has been destroyed")
	}

	m.debugValidate()

	tracked, ok := m.allocations.Get(alloc.handle)
	if !ok || tracked != alloc {
		return errors.Wrapf(OwnershipError, "received an allocation that is incompatible with this manager (handle: %d)", alloc.handle)
	}

	if DebugMargin > 0 && !validateMagicValue(m.memory, alloc.block.End) {
		return errors.Errorf("memory corruption detected after the allocation at offset %d", alloc.block.Offset)
	}

	m.allocations.Delete(alloc.handle)

	// Detach the view so further access through the handle is impossible.
	alloc.released = true
	alloc.memory = nil

	freed := Block{Offset: alloc.block.Offset, End: alloc.block.End + DebugMargin}
	m.allocationCount--
	m.allocationBytes -= alloc.block.Size()
	m.sumFreeSize += freed.Size()

	// Zero-size allocations never entered the free list and have nothing
	// to return to it.
	if freed.Size() == 0 {
		return nil
	}

	m.freeBlocks = append(m.freeBlocks, freed)

	// The list mostly stays sorted between frees, so a full re-sort is
	// cheap in practice and keeps adjacent blocks next to each other for
	// the merge pass below.
	slices.SortFunc(m.freeBlocks, func(a, b Block) bool {
		return a.Offset < b.Offset
	})

	for blockIndex := 0; blockIndex < len(m.freeBlocks)-1; {
		if m.freeBlocks[blockIndex].End == m.freeBlocks[blockIndex+1].Offset {
			m.freeBlocks[blockIndex] = Block{
				Offset: m.freeBlocks[blockIndex].Offset,
				End:    m.freeBlocks[blockIndex+1].End,
			}
			m.freeBlocks = slices.Delete(m.freeBlocks, blockIndex+1, blockIndex+2)
		} else {
			blockIndex++
		}
	}

	return nil
}

// Unallocated returns the total number of free bytes in the buffer.
func (m *Manager) Unallocated() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.sumFreeSize
}

// Available returns the size of the largest single free block, which is the
// largest allocation that could currently succeed. Returns 0 when the buffer is
// fully allocated.
func (m *Manager) Available() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.availableLocked()
}

func (m *Manager) availableLocked() int {
	var largest int
	for _, freeBlock := range m.freeBlocks {
		if freeBlock.Size() > largest {
			largest = freeBlock.Size()
		}
	}

	return largest
}

// Allocated returns the total number of allocated bytes in the buffer.
func (m *Manager) Allocated() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.allocationBytes
}

// AllocationCount returns the number of live allocations.
func (m *Manager) AllocationCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.allocationCount
}

// FreeRegionsCount returns the number of unique free regions in the buffer.
// Adjacent regions are always merged, so this is also the smallest number
// of blocks the free space can be described with.
func (m *Manager) FreeRegionsCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.freeBlocks)
}

// IsEmpty returns true if this manager has no live allocations.
func (m *Manager) IsEmpty() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.allocationCount == 0
}

// VisitAllRegions calls the provided callback once for each allocation and
// free region in the buffer, in ascending offset order. Free regions are
// reported with the handle NoAllocation. The manager's lock is held for the
// duration of the walk, so the callback must not call back into the manager.
func (m *Manager) VisitAllRegions(handleRegion func(handle AllocationHandle, offset int, size int, free bool) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.visitAllRegionsLocked(handleRegion)
}

type bufferRegion struct {
	handle AllocationHandle
	block  Block
	free   bool
}

func (m *Manager) visitAllRegionsLocked(handleRegion func(handle AllocationHandle, offset int, size int, free bool) error) error {
	regions := make([]bufferRegion, 0, len(m.freeBlocks)+m.allocations.Count())

	for _, freeBlock := range m.freeBlocks {
		regions = append(regions, bufferRegion{handle: NoAllocation, block: freeBlock, free: true})
	}
	m.allocations.Iter(func(handle AllocationHandle, alloc *Allocation) bool {
		regions = append(regions, bufferRegion{handle: handle, block: alloc.block})
		return false
	})

	slices.SortFunc(regions, func(a, b bufferRegion) bool {
		if a.block.Offset != b.block.Offset {
			return a.block.Offset < b.block.Offset
		}
		// A zero-size allocation shares its offset with the region that
		// begins there. Report the zero-size allocation first.
		return a.block.Size() < b.block.Size()
	})

	for _, region := range regions {
		err := handleRegion(region.handle, region.block.Offset, region.block.Size(), region.free)
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate performs internal consistency checks on the manager's
// bookkeeping. When the implementation is functioning correctly, it should
// not be possible for this method to return an error, but it may assist in
// diagnosing issues.
func (m *Manager) Validate() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.validateLocked()
}

func (m *Manager) validateLocked() error {
	if m.memory == nil {
		return errors.New("no valid memory for this manager")
	}

	var calculatedFreeSize int
	for blockIndex, freeBlock := range m.freeBlocks {
		if freeBlock.Size() <= 0 {
			return errors.Errorf("the free block at offset %d has invalid size %d", freeBlock.Offset, freeBlock.Size())
		}
		if freeBlock.Offset < 0 || freeBlock.End > len(m.memory) {
			return errors.Errorf("the free block at offset %d extends outside the %d-byte buffer", freeBlock.Offset, len(m.memory))
		}

		if blockIndex > 0 {
			prev := m.freeBlocks[blockIndex-1]
			if prev.End > freeBlock.Offset {
				return errors.Errorf("the free blocks at offsets %d and %d overlap or are out of order", prev.Offset, freeBlock.Offset)
			}
			if prev.End == freeBlock.Offset {
				return errors.Errorf("the free blocks at offsets %d and %d are adjacent but were not merged", prev.Offset, freeBlock.Offset)
			}
		}

		calculatedFreeSize += freeBlock.Size()
	}

	if calculatedFreeSize != m.sumFreeSize {
		return errors.Errorf("the manager's free size is %d, but the free blocks only added up to %d", m.sumFreeSize, calculatedFreeSize)
	}

	var calculatedAllocCount, calculatedAllocBytes int
	var allocErr error
	m.allocations.Iter(func(handle AllocationHandle, alloc *Allocation) bool {
		if alloc.handle != handle {
			allocErr = errors.Errorf("the allocation at offset %d is keyed by handle %d but carries handle %d", alloc.block.Offset, handle, alloc.handle)
			return true
		}
		if alloc.released {
			allocErr = errors.Errorf("the allocation at offset %d is tracked as live but has been released", alloc.block.Offset)
			return true
		}
		if alloc.block.Offset < 0 || alloc.block.End+DebugMargin > len(m.memory) {
			allocErr = errors.Errorf("the allocation at offset %d extends outside the %d-byte buffer", alloc.block.Offset, len(m.memory))
			return true
		}

		calculatedAllocCount++
		calculatedAllocBytes += alloc.block.Size()
		return false
	})
	if allocErr != nil {
		return allocErr
	}

	if calculatedAllocCount != m.allocationCount {
		return errors.Errorf("the allocation count of the manager is %d, but the tracked allocations only added up to %d", m.allocationCount, calculatedAllocCount)
	}
	if calculatedAllocBytes != m.allocationBytes {
		return errors.Errorf("the allocated size of the manager is %d, but the tracked allocations only added up to %d", m.allocationBytes, calculatedAllocBytes)
	}

	// Every byte is either free or owned by exactly one allocation.
	if m.sumFreeSize+m.allocationBytes+m.allocationCount*DebugMargin != len(m.memory) {
		return errors.Errorf("the free size %d and the allocated size %d don't add up to the buffer size %d", m.sumFreeSize, m.allocationBytes, len(m.memory))
	}

	lastEnd := 0
	err := m.visitAllRegionsLocked(func(handle AllocationHandle, offset, size int, free bool) error {
		if offset < lastEnd {
			return errors.Errorf("the region at offset %d collides with the previous region, which ends at %d", offset, lastEnd)
		}

		lastEnd = offset + size
		if !free {
			lastEnd += DebugMargin
		}
		return nil
	})
	if err != nil {
		return err
	}

	if lastEnd != len(m.memory) {
		return errors.Errorf("the regions only covered %d of the buffer's %d bytes", lastEnd, len(m.memory))
	}

	return nil
}

// CheckCorruption verifies that the anti-corruption markers written after
// each allocation are intact. Markers are only written when the package is
// built with the debug_carve build tag; without it this method succeeds
// trivially.
func (m *Manager) CheckCorruption() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.memory == nil {
		return errors.New("this manager has been destroyed")
	}

	var corruptErr error
	m.allocations.Iter(func(handle AllocationHandle, alloc *Allocation) bool {
		if !validateMagicValue(m.memory, alloc.block.End) {
			corruptErr = errors.Errorf("memory corruption detected after the allocation at offset %d", alloc.block.Offset)
			return true
		}
		return false
	})

	return corruptErr
}

// Destroy detaches the manager from its buffer. It fails if any
// allocations are still live, logging each unfreed allocation before
// returning. All operations on a destroyed manager return errors.
func (m *Manager) Destroy() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.memory == nil {
		return errors.New("this manager has already been destroyed")
	}

	if m.allocationCount != 0 {
		_ = m.visitAllRegionsLocked(func(handle AllocationHandle, offset, size int, free bool) error {
			if free {
				return nil
			}

			m.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
				slog.Uint64("handle", uint64(handle)),
				slog.Int("offset", offset),
				slog.Int("size", size),
			)
			return nil
		})

		return errors.Errorf("%d allocations were not freed before the destruction of this manager", m.allocationCount)
	}

	m.memory = nil
	m.freeBlocks = nil
	m.sumFreeSize = 0
	return nil
}

func (m *Manager) String() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return fmt.Sprintf("Manager(available=%d, allocated=%d, unallocated=%d)",
		m.availableLocked(), m.allocationBytes, m.sumFreeSize)
}
