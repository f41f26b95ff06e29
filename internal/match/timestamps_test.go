package match

import (
	"math"
	"testing"
	"time"
)

func TestSanitizeIdentityOnIncreasing(t *testing.T) {
	in := []float64{100, 101, 105, 200}
	out := SanitizeEpochSeconds(in)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d changed: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestSanitizeRepairsDuplicatesAndRegressions(t *testing.T) {
	in := []float64{100, 100, 99, 103, 103}
	out := SanitizeEpochSeconds(in)
	want := []float64{100, 101, 102, 103, 104}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSanitizeRepairsNaN(t *testing.T) {
	in := []float64{100, math.NaN(), 101}
	out := SanitizeEpochSeconds(in)
	if out[1] != 101 {
		t.Fatalf("NaN not repaired: %v", out[1])
	}
	if out[2] != 102 {
		t.Fatalf("follow-up not bumped: %v", out[2])
	}
}

func TestSanitizeDefaultsMissingFirst(t *testing.T) {
	oldNow := nowFn
	defer func() { nowFn = oldNow }()
	nowFn = func() time.Time { return time.Unix(5000, 0) }

	out := SanitizeEpochSeconds([]float64{math.NaN(), math.NaN()})
	if out[0] != 5000 || out[1] != 5001 {
		t.Fatalf("unexpected repair: %v", out)
	}
}

func TestSanitizeAlwaysStrictlyIncreasing(t *testing.T) {
	in := []float64{50, math.NaN(), 10, 10, 10, 9999, 9999, 3}
	out := SanitizeEpochSeconds(in)
	if len(out) != len(in) {
		t.Fatalf("length changed: %d != %d", len(out), len(in))
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Fatalf("not strictly increasing at %d: %v", i, out)
		}
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if out := SanitizeEpochSeconds(nil); len(out) != 0 {
		t.Fatalf("expected empty output")
	}
}
