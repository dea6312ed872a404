package carve

import "math"

// Statistics describes the basic allocation state of a managed buffer.
type Statistics struct {
	BufferBytes     int
	AllocationCount int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.BufferBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BufferBytes += other.BufferBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics extends Statistics with per-region extremes. Populate
// it with Manager.AddDetailedStatistics after calling Clear.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}

// AddStatistics sums this manager's allocation statistics into the
// statistics currently present in the provided Statistics object.
func (m *Manager) AddStatistics(stats *Statistics) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats.BufferBytes += len(m.memory)
	stats.AllocationCount += m.allocationCount
	stats.AllocationBytes += m.allocationBytes
}

// AddDetailedStatistics sums this manager's allocation statistics, with
// per-region extremes, into the statistics currently present in the
// provided DetailedStatistics object.
func (m *Manager) AddDetailedStatistics(stats *DetailedStatistics) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats.BufferBytes += len(m.memory)

	_ = m.visitAllRegionsLocked(func(handle AllocationHandle, offset, size int, free bool) error {
		if free {
			stats.AddUnusedRange(size)
		} else {
			stats.AddAllocation(size)
		}
		return nil
	})
}
