// Package sizing provides safe size arithmetic and range checks to prevent overflow.
package sizing

import "math"

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// MulUint64 multiplies two uint64 values, returning (result, false) on overflow.
func MulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

// InRange reports whether [off, off+n) lies within a buffer of length size.
func InRange(off, n, size uint64) bool {
	end, ok := AddUint64(off, n)
	return ok && end <= size
}

// Align rounds n up to the next multiple of align, which must be a power of two.
func Align(n, align uint64) (uint64, bool) {
	sum, ok := AddUint64(n, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}
