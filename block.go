package carve

import "fmt"

// Block describes a half-open byte range [Offset, End) within a managed
// buffer. A Block is a plain value: when a range changes, the Block is
// replaced wholesale rather than mutated in place.
type Block struct {
	Offset int
	End    int
}

// Size returns the number of bytes the block spans.
func (b Block) Size() int {
	return b.End - b.Offset
}

func (b Block) String() string {
	return fmt.Sprintf("Block(offset=%d, end=%d, size=%d)", b.Offset, b.End, b.Size())
}
