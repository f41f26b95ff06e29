package match

import "time"

// Point is a raw GPS sample handed to the road matcher.
type Point struct {
	Lat  float64
	Lon  float64
	Time time.Time
}
