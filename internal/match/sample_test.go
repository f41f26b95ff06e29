package match

import (
	"testing"
	"time"
)

func makePoints(n int) []Point {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Lat: 12.9 + float64(i)*0.0001, Lon: 77.5, Time: base.Add(time.Duration(i) * time.Second)}
	}
	return pts
}

func TestDownsampleWithinLimit(t *testing.T) {
	pts := makePoints(100)
	out := Downsample(pts, 100)
	if len(out) != 100 {
		t.Fatalf("expected unchanged input, got %d points", len(out))
	}
	for i := range out {
		if out[i] != pts[i] {
			t.Fatalf("point %d modified", i)
		}
	}
}

func TestDownsampleOverLimit(t *testing.T) {
	for _, n := range []int{101, 150, 250, 999, 1000} {
		pts := makePoints(n)
		out := Downsample(pts, 100)
		if len(out) > 101 {
			t.Fatalf("n=%d: got %d points, want <= 101", n, len(out))
		}
		if out[0] != pts[0] {
			t.Fatalf("n=%d: first point lost", n)
		}
		if out[len(out)-1] != pts[n-1] {
			t.Fatalf("n=%d: last point lost", n)
		}
	}
}

func TestDownsampleForcesLastPoint(t *testing.T) {
	// 7 points, max 3: step=3 keeps indexes 0,3,6 — last already kept.
	pts := makePoints(7)
	out := Downsample(pts, 3)
	if out[len(out)-1] != pts[6] {
		t.Fatalf("last point missing")
	}

	// 8 points, max 3: step=3 keeps 0,3,6; last (7) must be appended.
	pts = makePoints(8)
	out = Downsample(pts, 3)
	if out[len(out)-1] != pts[7] {
		t.Fatalf("last point not forced")
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 points, got %d", len(out))
	}
}
