// Package buffer constructs the zero-filled byte regions a carve.Manager
// is built over. Callers own the returned regions; the manager never
// allocates or frees them itself.
package buffer

// New returns a heap-backed, zero-filled byte region of the given length.
// Size must be non-negative.
func New(size int) []byte {
	return make([]byte, size)
}

// MmapBuffer is a zero-filled byte region backed by an anonymous memory
// mapping rather than the Go heap. The region does not count against the
// Go runtime's heap and must be released explicitly.
type MmapBuffer struct {
	data []byte
}

// NewMmap returns a zero-filled MmapBuffer of the given length. On
// platforms without mmap support, and for zero-length requests, the region
// falls back to the heap.
func NewMmap(size int) (*MmapBuffer, error) {
	if size == 0 {
		return &MmapBuffer{data: []byte{}}, nil
	}

	data, err := mmapAlloc(size)
	if err != nil {
		return nil, err
	}

	return &MmapBuffer{data: data}, nil
}

// Bytes returns the mapped region. Returns nil after Release.
func (b *MmapBuffer) Bytes() []byte {
	return b.data
}

// Release unmaps the region. The buffer and every byte slice derived from
// it must not be used afterward.
func (b *MmapBuffer) Release() error {
	// Zero-length regions were never mapped, and munmap rejects them.
	if len(b.data) == 0 {
		b.data = nil
		return nil
	}

	err := mmapFree(b.data)
	b.data = nil
	return err
}
