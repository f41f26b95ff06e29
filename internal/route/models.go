package route

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Instant is a stored UTC timestamp. Documents written by the previous
// schema carry timestamps in a wrapped shape ({"$date": ...}, string
// or epoch-millis number); Instant accepts all of them on read and
// always writes plain RFC3339, so legacy documents normalize the next
// time their owner syncs.
type Instant struct {
	time.Time
}

func NewInstant(t time.Time) Instant {
	return Instant{t.UTC()}
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(i.UTC().Format(time.RFC3339Nano))
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	t, err := parseInstant(data)
	if err != nil {
		return err
	}
	i.Time = t
	return nil
}

func parseInstant(data []byte) (time.Time, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return time.Time{}, err
	}
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
	case float64:
		// epoch milliseconds
		return time.UnixMilli(int64(v)).UTC(), nil
	case map[string]any:
		inner, ok := v["$date"]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown timestamp object")
		}
		switch d := inner.(type) {
		case string:
			// may itself be a numeric-string epoch
			if ms, err := strconv.ParseInt(d, 10, 64); err == nil {
				return time.UnixMilli(ms).UTC(), nil
			}
			if t, err := time.Parse(time.RFC3339Nano, d); err == nil {
				return t.UTC(), nil
			}
			return time.Time{}, fmt.Errorf("unparseable $date %q", d)
		case float64:
			return time.UnixMilli(int64(d)).UTC(), nil
		case map[string]any:
			if nl, ok := d["$numberLong"].(string); ok {
				ms, err := strconv.ParseInt(nl, 10, 64)
				if err != nil {
					return time.Time{}, err
				}
				return time.UnixMilli(ms).UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unknown $date shape")
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

// LocationPoint is one stored GPS sample. TimestampIST is a derived,
// display-only rendering of TimestampUTC in the bucket timezone.
type LocationPoint struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	TimestampUTC Instant `json:"timestampUTC"`
	TimestampIST string  `json:"timestampIST,omitempty"`
}

// Image record types captured by the driver app.
const (
	ImageTypeStartSpeedometer = "start_speedometer"
	ImageTypeEndSpeedometer   = "end_speedometer"
	ImageTypeJourneyStop      = "journey_stop"
)

func ValidImageType(t string) bool {
	switch t {
	case ImageTypeStartSpeedometer, ImageTypeEndSpeedometer, ImageTypeJourneyStop:
		return true
	}
	return false
}

type ImageLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ImageRecord is append-only metadata about an uploaded session image.
// Byte storage lives elsewhere; only URLs are kept here.
type ImageRecord struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	Type         string         `json:"type"`
	TimestampUTC Instant        `json:"timestampUTC"`
	Location     *ImageLocation `json:"location,omitempty"`
	Description  string         `json:"description,omitempty"`
}

// Session is one continuous tracked drive. Locations are stored in
// append order, which is time order by convention.
type Session struct {
	SessionID string          `json:"sessionId"`
	StartTime Instant         `json:"startTime"`
	EndTime   Instant         `json:"endTime"`
	Name      string          `json:"name,omitempty"`
	Locations []LocationPoint `json:"locations"`
	Images    []ImageRecord   `json:"images,omitempty"`
}

type DateBucket struct {
	Sessions []Session `json:"sessions"`
}

// RouteDocument is the single per-user document: date key (YYYY-MM-DD
// in the bucket timezone) to that day's sessions.
type RouteDocument struct {
	Dates map[string]*DateBucket `json:"dates"`
}
