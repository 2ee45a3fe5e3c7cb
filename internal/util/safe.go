package util

import "math"

// SafeInt64Diff returns u1-u2, or 0 when the result is negative or would
// overflow an int64
func SafeInt64Diff(u1, u2 uint64) int64 {
	if u1 < u2 || u1-u2 > math.MaxInt64 {
		return 0
	}
	return int64(u1 - u2)
}

// SafeUint64 clamps negative counters to zero
func SafeUint64(value int64) uint64 {
	return uint64(max(value, 0))
}
