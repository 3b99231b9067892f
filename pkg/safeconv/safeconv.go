// Package safeconv provides integer conversions that never wrap silently.
package safeconv

import "math"

// Uint64ToInt64 converts v, saturating at math.MaxInt64. Read totals are
// uint64 while humanized output and metrics take int64.
func Uint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// MustIntToUint8 converts int to uint8, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint8(v int) uint8 {
	if v < 0 || v > math.MaxUint8 {
		panic("safeconv: int to uint8 out of bounds")
	}

	return uint8(v)
}
