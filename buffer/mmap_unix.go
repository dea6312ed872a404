//go:build unix

package buffer

import (
	"golang.org/x/sys/unix"
)

// mmapAlloc maps size bytes of zero-filled anonymous memory.
func mmapAlloc(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// mmapFree unmaps a region returned by mmapAlloc.
func mmapFree(data []byte) error {
	return unix.Munmap(data)
}
