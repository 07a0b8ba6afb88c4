package buffer

import (
	"fmt"
	"unsafe"
)

// Heap allocates from the Go heap, over-allocating by Alignment bytes and
// slicing at the first aligned offset. Free drops the reference and leaves
// reclamation to the garbage collector.
type Heap struct{}

func (Heap) Name() string { return "heap" }

func (Heap) Alloc(size int) (blk Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: heap: %v", ErrAlloc, r)
		}
	}()

	raw := make([]byte, size+Alignment)
	off := alignOffset(uintptr(unsafe.Pointer(unsafe.SliceData(raw))))

	return Block{
		Bytes: raw[off : off+size : off+size],
		Free: func() error {
			raw = nil
			return nil
		},
	}, nil
}

func alignOffset(addr uintptr) int {
	rem := int(addr % Alignment)
	if rem == 0 {
		return 0
	}
	return Alignment - rem
}
