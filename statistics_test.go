package carve_test

import (
	"math"
	"testing"

	"github.com/carvekit/carve"
	"github.com/carvekit/carve/buffer"
	"github.com/stretchr/testify/require"
)

func TestDetailedStatistics(t *testing.T) {
	if carve.DebugMargin > 0 {
		t.Skip("statistics assume no debug margin")
	}

	m, err := carve.New(buffer.New(1000), carve.ManagerOptions{})
	require.NoError(t, err)

	var stats carve.DetailedStatistics
	stats.Clear()
	m.AddDetailedStatistics(&stats)

	require.Equal(t, carve.DetailedStatistics{
		Statistics: carve.Statistics{
			BufferBytes:     1000,
			AllocationCount: 0,
			AllocationBytes: 0,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  math.MaxInt,
		AllocationSizeMax:  0,
		UnusedRangeSizeMin: 1000,
		UnusedRangeSizeMax: 1000,
	}, stats)

	alloc1, err := m.Alloc(100)
	require.NoError(t, err)

	stats.Clear()
	m.AddDetailedStatistics(&stats)

	require.Equal(t, carve.DetailedStatistics{
		Statistics: carve.Statistics{
			BufferBytes:     1000,
			AllocationCount: 1,
			AllocationBytes: 100,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  100,
		AllocationSizeMax:  100,
		UnusedRangeSizeMin: 900,
		UnusedRangeSizeMax: 900,
	}, stats)

	alloc2, err := m.Alloc(300)
	require.NoError(t, err)
	require.NoError(t, m.Free(alloc1))

	stats.Clear()
	m.AddDetailedStatistics(&stats)

	require.Equal(t, carve.DetailedStatistics{
		Statistics: carve.Statistics{
			BufferBytes:     1000,
			AllocationCount: 1,
			AllocationBytes: 300,
		},
		UnusedRangeCount:   2,
		AllocationSizeMin:  300,
		AllocationSizeMax:  300,
		UnusedRangeSizeMin: 100,
		UnusedRangeSizeMax: 600,
	}, stats)

	require.NoError(t, m.Free(alloc2))
}

func TestAddStatistics(t *testing.T) {
	m1, err := carve.New(buffer.New(100), carve.ManagerOptions{})
	require.NoError(t, err)
	m2, err := carve.New(buffer.New(200), carve.ManagerOptions{})
	require.NoError(t, err)

	_, err = m1.Alloc(10)
	require.NoError(t, err)
	_, err = m2.Alloc(20)
	require.NoError(t, err)

	var stats carve.Statistics
	stats.Clear()
	m1.AddStatistics(&stats)
	m2.AddStatistics(&stats)

	require.Equal(t, carve.Statistics{
		BufferBytes:     300,
		AllocationCount: 2,
		AllocationBytes: 30,
	}, stats)
}
