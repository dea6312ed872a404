package carve

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// BuildStatsString returns a JSON snapshot of the manager's state: the
// three byte counters plus a map of every allocation and free range in
// offset order.
func (m *Manager) BuildStatsString() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	writer := jwriter.NewWriter()
	objState := writer.Object()

	objState.Name("TotalBytes").Int(len(m.memory))
	objState.Name("UnusedBytes").Int(m.sumFreeSize)
	objState.Name("AllocatedBytes").Int(m.allocationBytes)
	objState.Name("LargestFreeRegion").Int(m.availableLocked())
	objState.Name("Allocations").Int(m.allocationCount)
	objState.Name("UnusedRanges").Int(len(m.freeBlocks))

	m.printDetailedMapRegions(&objState)

	objState.End()
	return string(writer.Bytes())
}

func (m *Manager) printDetailedMapRegions(json *jwriter.ObjectState) {
	arrayState := json.Name("Regions").Array()
	defer arrayState.End()

	_ = m.visitAllRegionsLocked(func(handle AllocationHandle, offset, size int, free bool) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(offset)
		obj.Name("Size").Int(size)
		if free {
			obj.Name("Type").String("FREE")
		} else {
			obj.Name("Type").String("ALLOCATION")
			obj.Name("Handle").Int(int(handle))
		}

		return nil
	})
}
