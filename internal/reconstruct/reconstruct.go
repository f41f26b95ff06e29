package reconstruct

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/geo"
	"github.com/Yash-Ainapure/walstar-task/internal/match"

	"github.com/redis/go-redis/v9"
)

// Confidence levels used by clients to color-code the rendered route.
const (
	LevelStrong = "strong"
	LevelMedium = "medium"
	LevelWeak   = "weak"
)

// Route is the display-ready reconstruction of a session. Polyline
// vertices are (lat, lon). A route is always renderable: when matching
// fails the raw point sequence and its haversine distance are returned
// with UsedFallback set.
type Route struct {
	Polyline        [][2]float64 `json:"polyline"`
	DistanceMeters  float64      `json:"distance_meters"`
	Confidence      float64      `json:"confidence"`
	ConfidenceLevel string       `json:"confidence_level"`
	UsedFallback    bool         `json:"used_fallback"`
}

type Reconstructor struct {
	matcher match.Matcher
	redis   *redis.Client
	ttl     time.Duration
}

// New builds a Reconstructor. redisClient may be nil, which disables
// the short-lived result cache.
func New(matcher match.Matcher, redisClient *redis.Client, ttl time.Duration) *Reconstructor {
	return &Reconstructor{matcher: matcher, redis: redisClient, ttl: ttl}
}

// Reconstruct turns a session's raw location list into a route. With
// fewer than two valid points no external call is made and the raw
// points come back with distance zero. Otherwise the road matcher is
// consulted; any failure there degrades to the full-fidelity raw
// polyline with a haversine-summed distance.
//
// Matched results are cached per owner, session and point count, so a
// later sync that appends points changes the key and naturally
// invalidates the stale reconstruction.
func (r *Reconstructor) Reconstruct(ctx context.Context, ownerID, sessionID string, points []match.Point) Route {
	valid := points[:0:0]
	for _, p := range points {
		if geo.IsValidCoordinate(p.Lat, p.Lon) {
			valid = append(valid, p)
		}
	}

	if len(valid) < 2 {
		return Route{
			Polyline:        toPolyline(valid),
			DistanceMeters:  0,
			Confidence:      0,
			ConfidenceLevel: LevelWeak,
		}
	}

	cacheKey := fmt.Sprintf("routeview:%s:%s:%d", ownerID, sessionID, len(points))
	if cached, ok := r.cacheGet(ctx, cacheKey); ok {
		return cached
	}

	m, err := r.matcher.Match(ctx, valid)
	if err != nil {
		log.Printf("map match failed for session %s, falling back: %v", sessionID, err)
		fallback := toPolyline(valid)
		return Route{
			Polyline:        fallback,
			DistanceMeters:  polylineDistance(fallback),
			Confidence:      0,
			ConfidenceLevel: LevelWeak,
			UsedFallback:    true,
		}
	}

	dist := polylineDistance(m.Polyline)
	if m.DistanceMeters != nil {
		dist = *m.DistanceMeters
	}

	route := Route{
		Polyline:        m.Polyline,
		DistanceMeters:  dist,
		Confidence:      m.Confidence,
		ConfidenceLevel: ClassifyConfidence(m.Confidence),
	}
	r.cacheSet(ctx, cacheKey, route)
	return route
}

// ClassifyConfidence maps a [0,1] match confidence onto a rendering
// hint: >=0.8 strong, >=0.5 medium, else weak.
func ClassifyConfidence(c float64) string {
	switch {
	case c >= 0.8:
		return LevelStrong
	case c >= 0.5:
		return LevelMedium
	default:
		return LevelWeak
	}
}

func (r *Reconstructor) cacheGet(ctx context.Context, key string) (Route, bool) {
	if r.redis == nil {
		return Route{}, false
	}
	raw, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		return Route{}, false
	}
	var route Route
	if err := json.Unmarshal(raw, &route); err != nil {
		return Route{}, false
	}
	return route, true
}

// Only matched results are cached; a fallback must stay retryable so
// the next view can succeed once the matching service recovers.
func (r *Reconstructor) cacheSet(ctx context.Context, key string, route Route) {
	if r.redis == nil {
		return
	}
	raw, err := json.Marshal(route)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		log.Printf("route cache set error: %v", err)
	}
}

func toPolyline(points []match.Point) [][2]float64 {
	polyline := make([][2]float64, len(points))
	for i, p := range points {
		polyline[i] = [2]float64{p.Lat, p.Lon}
	}
	return polyline
}

func polylineDistance(polyline [][2]float64) float64 {
	var total float64
	for i := 1; i < len(polyline); i++ {
		total += geo.DistanceMeters(polyline[i-1][0], polyline[i-1][1], polyline[i][0], polyline[i][1])
	}
	return total
}
