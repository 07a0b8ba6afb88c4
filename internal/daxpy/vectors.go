package daxpy

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrVerify is returned when an element does not hold alpha*x+1 after a pass.
var ErrVerify = errors.New("verification failed")

// XAt is the initial value of x[i].
func XAt[T constraints.Float](i int) T {
	return T(i%100) * 0.5
}

// Init sets x[i] = (i mod 100) * 0.5 and y[i] = 1.
func Init[T constraints.Float](x, y []T) {
	for i := range x {
		x[i] = XAt[T](i)
	}
	for i := range y {
		y[i] = 1
	}
}

// Checksum sums y left to right in float64. The fixed order makes the value
// reproducible regardless of how the update was partitioned.
func Checksum[T constraints.Float](y []T) float64 {
	var sum float64
	for _, v := range y {
		sum += float64(v)
	}
	return sum
}

// Verify checks y[i] == alpha*x_init[i] + 1 for every i, rounding the same
// way the kernels do.
func Verify[T constraints.Float](y []T, alpha T) error {
	for i, got := range y {
		want := T(alpha*XAt[T](i)) + 1
		if got != want {
			return fmt.Errorf("%w: y[%d] = %v, want %v", ErrVerify, i, got, want)
		}
	}
	return nil
}
