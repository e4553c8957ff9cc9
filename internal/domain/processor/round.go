package processor

import "math"

// RoundedDuration rounds seconds up to the next multiple of roundMinutes.
// A non-positive roundMinutes disables rounding; exact multiples are unchanged.
// Results that would not fit in an int64 saturate at math.MaxInt64.
func RoundedDuration(seconds int64, roundMinutes int) int64 {
	if roundMinutes <= 0 || seconds <= 0 {
		return seconds
	}
	if int64(roundMinutes) > math.MaxInt64/60 {
		return math.MaxInt64
	}
	step := int64(roundMinutes) * 60
	q, r := seconds/step, seconds%step
	if r == 0 {
		return seconds
	}
	if q >= math.MaxInt64/step {
		return math.MaxInt64
	}
	return (q + 1) * step
}
