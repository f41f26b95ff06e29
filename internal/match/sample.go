package match

// Downsample bounds a point sequence to roughly max entries for
// services with a request-size ceiling. Sequences already within the
// limit are returned unchanged. Otherwise every step-th point is kept
// and the original last point is forced back in, so the result has at
// most max+1 entries and always covers the full start-to-end span.
func Downsample(points []Point, max int) []Point {
	if max <= 0 || len(points) <= max {
		return points
	}

	step := (len(points) + max - 1) / max
	sampled := make([]Point, 0, max+1)
	for i := 0; i < len(points); i += step {
		sampled = append(sampled, points[i])
	}
	last := points[len(points)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}
	return sampled
}
