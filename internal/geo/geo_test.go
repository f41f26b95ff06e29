package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := DistanceMeters(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100000 || d > 140000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMetersZero(t *testing.T) {
	if d := DistanceMeters(12.97, 77.59, 12.97, 77.59); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	ab := DistanceMeters(0, 0, 0, 0.001)
	ba := DistanceMeters(0, 0.001, 0, 0)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", ab, ba)
	}
	// one millidegree of longitude on the equator is ~111m
	if ab < 100 || ab > 120 {
		t.Fatalf("unexpected millidegree distance: %v", ab)
	}
}

func TestDistanceMetersTriangle(t *testing.T) {
	ac := DistanceMeters(0, 0, 0, 0.002)
	ab := DistanceMeters(0, 0, 0, 0.001)
	bc := DistanceMeters(0, 0.001, 0, 0.002)
	if ac > ab+bc+1e-6 {
		t.Fatalf("triangle inequality violated: %v > %v + %v", ac, ab, bc)
	}
}

func TestIsValidCoordinate(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{12.97, 77.59, true},
		{-90, 180, true},
		{90, -180, true},
		{91, 0, false},
		{-91, 0, false},
		{0, 181, false},
		{0, -181, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
		{math.Inf(1), 0, false},
	}
	for _, c := range cases {
		if got := IsValidCoordinate(c.lat, c.lon); got != c.want {
			t.Fatalf("IsValidCoordinate(%v,%v) = %v, want %v", c.lat, c.lon, got, c.want)
		}
	}
}
