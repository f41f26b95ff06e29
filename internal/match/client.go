package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/geo"
)

var (
	// ErrInsufficientPoints means fewer than two valid coordinates
	// survived filtering; the caller should render the raw points.
	ErrInsufficientPoints = errors.New("insufficient valid points for matching")
	// ErrNoMatch covers every recoverable service failure: transport
	// errors, non-success status, non-Ok code, empty matchings.
	ErrNoMatch = errors.New("map matching unavailable")
)

// Matching is the selected road-snapped reconstruction of a point
// sequence. Polyline vertices are (lat, lon). DistanceMeters is nil
// when the service omits a total.
type Matching struct {
	Polyline       [][2]float64
	Confidence     float64
	DistanceMeters *float64
}

// Matcher is implemented by the OSRM client and by test stubs.
type Matcher interface {
	Match(ctx context.Context, points []Point) (Matching, error)
}

// Client issues map-matching requests against an OSRM-compatible
// service. A single attempt per call, bounded by the configured
// timeout; retry policy belongs to the caller.
type Client struct {
	baseURL   string
	profile   string
	http      *http.Client
	maxPoints int
	radiusM   int
}

func NewClient(baseURL, profile string, timeout time.Duration, maxPoints, radiusM int) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		profile:   profile,
		http:      &http.Client{Timeout: timeout},
		maxPoints: maxPoints,
		radiusM:   radiusM,
	}
}

type osrmResponse struct {
	Code      string         `json:"code"`
	Matchings []osrmMatching `json:"matchings"`
}

type osrmMatching struct {
	Confidence float64  `json:"confidence"`
	Distance   *float64 `json:"distance"`
	Geometry   struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

func (c *Client) Match(ctx context.Context, points []Point) (Matching, error) {
	valid := points[:0:0]
	for _, p := range points {
		if geo.IsValidCoordinate(p.Lat, p.Lon) {
			valid = append(valid, p)
		}
	}
	if len(valid) < 2 {
		return Matching{}, ErrInsufficientPoints
	}

	sampled := Downsample(valid, c.maxPoints)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(sampled), nil)
	if err != nil {
		return Matching{}, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Matching{}, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Matching{}, fmt.Errorf("%w: status %d", ErrNoMatch, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Matching{}, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	if body.Code != "Ok" || len(body.Matchings) == 0 {
		return Matching{}, fmt.Errorf("%w: code %q, %d matchings", ErrNoMatch, body.Code, len(body.Matchings))
	}

	best := bestMatching(body.Matchings)

	polyline := make([][2]float64, 0, len(best.Geometry.Coordinates))
	for _, lonlat := range best.Geometry.Coordinates {
		if len(lonlat) < 2 {
			continue
		}
		// GeoJSON is lon,lat; display wants lat,lon
		polyline = append(polyline, [2]float64{lonlat[1], lonlat[0]})
	}

	return Matching{
		Polyline:       polyline,
		Confidence:     best.Confidence,
		DistanceMeters: best.Distance,
	}, nil
}

// bestMatching picks the highest-confidence matching; the first
// occurrence wins ties.
func bestMatching(matchings []osrmMatching) osrmMatching {
	best := 0
	for i := 1; i < len(matchings); i++ {
		if matchings[i].Confidence > matchings[best].Confidence {
			best = i
		}
	}
	return matchings[best]
}

func (c *Client) buildURL(points []Point) string {
	coords := make([]string, len(points))
	timestamps := make([]float64, len(points))
	radiuses := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
		if p.Time.IsZero() {
			timestamps[i] = math.NaN()
		} else {
			timestamps[i] = float64(p.Time.Unix())
		}
		radiuses[i] = strconv.Itoa(c.radiusM)
	}

	sanitized := SanitizeEpochSeconds(timestamps)
	tsStrs := make([]string, len(sanitized))
	for i, t := range sanitized {
		tsStrs[i] = strconv.FormatInt(int64(t), 10)
	}

	return fmt.Sprintf(
		"%s/match/v1/%s/%s?geometries=geojson&overview=full&gaps=ignore&tidy=true&timestamps=%s&radiuses=%s",
		c.baseURL, c.profile,
		strings.Join(coords, ";"),
		strings.Join(tsStrs, ";"),
		strings.Join(radiuses, ";"),
	)
}
