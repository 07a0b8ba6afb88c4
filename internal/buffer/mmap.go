package buffer

import (
	"fmt"

	mmap "github.com/edsrzf/mmap-go"
)

// Mmap allocates anonymous private mappings. Mappings are page aligned and
// are returned to the kernel by Free.
type Mmap struct{}

func (Mmap) Name() string { return "mmap" }

func (Mmap) Alloc(size int) (Block, error) {
	if size <= 0 {
		return Block{}, fmt.Errorf("%w: mmap: invalid size %d", ErrAlloc, size)
	}

	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return Block{}, fmt.Errorf("%w: mmap %d bytes: %v", ErrAlloc, size, err)
	}

	return Block{
		Bytes: m,
		Free: func() error {
			if err := m.Unmap(); err != nil {
				return fmt.Errorf("munmap: %w", err)
			}
			return nil
		},
	}, nil
}
