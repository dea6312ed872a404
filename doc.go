// Package carve manages allocations within a single caller-supplied
// contiguous byte buffer. It carves fixed-size ranges out of the buffer
// on request, tracks which ranges are in use, and reclaims freed ranges
// back into a coalesced free list.
//
// A Manager hands out Allocation handles backed directly by the buffer's
// bytes. Writes through a handle are writes to the buffer, with no
// copying. The Manager never interprets or zeroes buffer contents.
//
// All Manager operations are safe for concurrent use. The contents of
// the buffer itself are not protected: two handles over disjoint ranges
// may be written from different goroutines without additional
// synchronization, but retaining the bytes of a freed handle is a
// contract violation the Manager does not detect.
package carve
