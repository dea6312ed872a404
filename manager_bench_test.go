package carve_test

import (
	"math/rand"
	"testing"

	"github.com/carvekit/carve"
	"github.com/carvekit/carve/buffer"
	"github.com/stretchr/testify/require"
)

func BenchmarkAllocFree(b *testing.B) {
	m, err := carve.New(buffer.New(1<<20), carve.ManagerOptions{})
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		alloc, err := m.Alloc(256)
		if err != nil {
			b.Fatal(err)
		}

		err = m.Free(alloc)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAllocFreeFragmented(b *testing.B) {
	m, err := carve.New(buffer.New(1<<20), carve.ManagerOptions{})
	require.NoError(b, err)

	// Pin every other allocation so the free list stays populated.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 512; i++ {
		alloc, err := m.Alloc(64 + rng.Intn(192))
		require.NoError(b, err)

		if i%2 == 0 {
			require.NoError(b, m.Free(alloc))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		alloc, err := m.Alloc(128)
		if err != nil {
			b.Fatal(err)
		}

		err = m.Free(alloc)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildStatsString(b *testing.B) {
	m, err := carve.New(buffer.New(1<<20), carve.ManagerOptions{})
	require.NoError(b, err)

	for i := 0; i < 256; i++ {
		alloc, err := m.Alloc(512)
		require.NoError(b, err)

		if i%3 == 0 {
			require.NoError(b, m.Free(alloc))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		str := m.BuildStatsString()
		if str == "" {
			b.Fatal("empty stats string")
		}
	}
}
