package match

import (
	"math"
	"time"
)

var nowFn = time.Now

// SanitizeEpochSeconds repairs a sequence of per-point epoch-second
// values so it is strictly increasing, which the matching protocol
// requires. The first value is kept as-is (defaulting to now when
// missing); every later value that is missing, NaN or not strictly
// greater than its predecessor is replaced with predecessor+1. The
// repair is local and greedy: it never looks ahead and never lowers a
// value, so already-increasing input comes back untouched.
func SanitizeEpochSeconds(raw []float64) []float64 {
	if len(raw) == 0 {
		return nil
	}

	fixed := make([]float64, len(raw))
	last := raw[0]
	if math.IsNaN(last) {
		last = float64(nowFn().Unix())
	}
	fixed[0] = last
	for i := 1; i < len(raw); i++ {
		t := raw[i]
		if math.IsNaN(t) || t <= last {
			t = last + 1
		}
		fixed[i] = t
		last = t
	}
	return fixed
}
