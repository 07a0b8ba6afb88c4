// Package buffer provides fixed-length numeric vectors whose first element
// is aligned to a cache-line boundary.
//
// A Vec is allocated once through an Allocator and released exactly once
// with Release. Release is idempotent so it can be deferred on every exit
// path and still be called explicitly.
package buffer

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Alignment is the byte boundary every non-empty Vec starts on.
const Alignment = 64

// ErrAlloc is wrapped by every allocation failure.
var ErrAlloc = errors.New("buffer allocation failed")

// Block is a raw byte region handed out by an Allocator. Free returns the
// region to its origin.
type Block struct {
	Bytes []byte
	Free  func() error
}

// Allocator hands out Alignment-aligned byte regions.
type Allocator interface {
	Name() string
	Alloc(size int) (Block, error)
}

// Vec is an owned, fixed-length vector of floating-point elements.
type Vec[T constraints.Float] struct {
	data []T
	free func() error
}

// New allocates a vector of n elements using a. The contents are zeroed.
// A zero-length vector needs no backing memory and always succeeds.
func New[T constraints.Float](a Allocator, n uint64) (*Vec[T], error) {
	if n == 0 {
		return &Vec[T]{}, nil
	}

	var zero T
	elem := uint64(unsafe.Sizeof(zero))

	hi, size := bits.Mul64(n, elem)
	if hi != 0 || size > math.MaxInt-Alignment {
		return nil, fmt.Errorf("%w: %d elements of %d bytes overflows the address space", ErrAlloc, n, elem)
	}

	if err := checkPhysical(size); err != nil {
		return nil, err
	}

	blk, err := a.Alloc(int(size))
	if err != nil {
		return nil, err
	}

	if !IsAligned(blk.Bytes) {
		_ = blk.Free()
		return nil, fmt.Errorf("%w: %s returned a region not aligned to %d bytes", ErrAlloc, a.Name(), Alignment)
	}

	data := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(blk.Bytes))), int(n))

	return &Vec[T]{data: data, free: blk.Free}, nil
}

// Data returns the backing slice. It must not be used after Release.
func (v *Vec[T]) Data() []T { return v.data }

// Len returns the element count.
func (v *Vec[T]) Len() int { return len(v.data) }

// Release returns the backing memory to its allocator. Calling Release more
// than once is a no-op.
func (v *Vec[T]) Release() error {
	free := v.free
	v.data = nil
	v.free = nil
	if free == nil {
		return nil
	}
	return free()
}

// IsAligned reports whether the first element of s sits on an Alignment
// boundary. Empty slices are considered aligned.
func IsAligned[E any](s []E) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))%Alignment == 0
}

// ForName returns the allocator registered under name ("heap" or "mmap").
func ForName(name string) (Allocator, error) {
	switch name {
	case "heap":
		return Heap{}, nil
	case "mmap":
		return Mmap{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator %q", name)
	}
}

// CheckFootprint reports whether count vectors of n elements of T can be
// live at the same time: their combined size must fit the address space and
// must not exceed physical memory plus swap when that is known.
func CheckFootprint[T constraints.Float](count, n uint64) error {
	var zero T
	elem := uint64(unsafe.Sizeof(zero))

	hi, per := bits.Mul64(n, elem)
	if hi != 0 {
		return fmt.Errorf("%w: %d elements of %d bytes overflows the address space", ErrAlloc, n, elem)
	}

	hi, total := bits.Mul64(per, count)
	if hi != 0 || total > math.MaxInt-Alignment {
		return fmt.Errorf("%w: %d buffers of %d elements of %d bytes overflow the address space", ErrAlloc, count, n, elem)
	}

	return checkPhysical(total)
}

func checkPhysical(size uint64) error {
	limit := PhysicalMemory()
	if limit == 0 || size <= limit {
		return nil
	}
	return fmt.Errorf("%w: %d bytes exceeds physical memory and swap (%d bytes)", ErrAlloc, size, limit)
}
