package utils

import "math"

// TruncateInt truncates f toward zero. It reports false for NaN, infinities
// and anything outside the 32-bit range, which no price, area or room count
// can reach.
func TruncateInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
