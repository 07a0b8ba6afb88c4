// Package axpy implements the scaled vector update y = a*x + y and its
// fork-join driver.
package axpy

import (
	vecmath "github.com/cwbudde/algo-vecmath"
	"golang.org/x/exp/constraints"
)

// Kernel updates dst in place with dst[i] = alpha*src[i] + dst[i].
// len(dst) must equal len(src).
type Kernel[T constraints.Float] func(dst []T, alpha T, src []T)

// F32 computes dst = alpha*src + dst element-wise.
// If src and dst lengths differ, the shorter length is used.
func F32(dst []float32, alpha float32, src []float32) {
	n := min(len(dst), len(src))
	if n == 0 {
		return
	}

	axpyF32(dst[:n], alpha, src[:n])
}

// F64 computes dst = alpha*src + dst element-wise.
// If src and dst lengths differ, the shorter length is used.
func F64(dst []float64, alpha float64, src []float64) {
	n := min(len(dst), len(src))
	if n == 0 {
		return
	}

	if n < minBlocked {
		axpyF64Generic(dst[:n], alpha, src[:n])
		return
	}

	axpyF64Blocked(dst[:n], alpha, src[:n])
}

// axpyF32 is unrolled by four. The explicit conversion rounds the product
// before the add, which keeps the compiler from contracting it into an FMA;
// results are then identical whatever the chunk boundaries are.
func axpyF32(dst []float32, alpha float32, src []float32) {
	src = src[:len(dst)]

	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		s := src[i : i+4 : i+4]
		d[0] = float32(alpha*s[0]) + d[0]
		d[1] = float32(alpha*s[1]) + d[1]
		d[2] = float32(alpha*s[2]) + d[2]
		d[3] = float32(alpha*s[3]) + d[3]
	}

	for ; i < len(dst); i++ {
		dst[i] = float32(alpha*src[i]) + dst[i]
	}
}

func axpyF64Generic(dst []float64, alpha float64, src []float64) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] = float64(alpha*src[i]) + dst[i]
	}
}

// minBlocked is the shortest input worth the vecmath dispatch.
const minBlocked = 8

// blockLen bounds the scratch used by the vecmath path so it stays in L1.
const blockLen = 512

// axpyF64Blocked scales src into a stack scratch block and accumulates it
// into dst, letting vecmath pick the SIMD implementation for both passes.
func axpyF64Blocked(dst []float64, alpha float64, src []float64) {
	var scratch [blockLen]float64

	for lo := 0; lo < len(dst); lo += blockLen {
		hi := min(lo+blockLen, len(dst))
		tmp := scratch[:hi-lo]
		vecmath.ScaleBlock(tmp, src[lo:hi], alpha)
		vecmath.AddBlockInPlace(dst[lo:hi], tmp)
	}
}
