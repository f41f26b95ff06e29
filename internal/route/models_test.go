package route

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestInstantPlainString(t *testing.T) {
	var i Instant
	if err := json.Unmarshal([]byte(`"2024-03-01T09:00:00Z"`), &i); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !i.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", i)
	}
}

func TestInstantEpochMillis(t *testing.T) {
	var i Instant
	if err := json.Unmarshal([]byte(`1709283600000`), &i); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !i.Equal(time.UnixMilli(1709283600000)) {
		t.Fatalf("unexpected time: %v", i)
	}
}

func TestInstantLegacyDateWrapper(t *testing.T) {
	cases := []string{
		`{"$date": "2024-03-01T09:00:00Z"}`,
		`{"$date": 1709283600000}`,
		`{"$date": {"$numberLong": "1709283600000"}}`,
	}
	for _, c := range cases {
		var i Instant
		if err := json.Unmarshal([]byte(c), &i); err != nil {
			t.Fatalf("unmarshal %s: %v", c, err)
		}
		if i.IsZero() {
			t.Fatalf("zero time for %s", c)
		}
	}
}

func TestInstantRoundTripNormalizes(t *testing.T) {
	var i Instant
	if err := json.Unmarshal([]byte(`{"$date": "2024-03-01T09:00:00Z"}`), &i); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(i)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "$date") {
		t.Fatalf("wrapper survived round trip: %s", out)
	}
	var back Instant
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !back.Equal(i.Time) {
		t.Fatalf("round trip drift: %v vs %v", back, i)
	}
}

func TestInstantGarbage(t *testing.T) {
	var i Instant
	if err := json.Unmarshal([]byte(`"not a date"`), &i); err == nil {
		t.Fatalf("expected error")
	}
	if err := json.Unmarshal([]byte(`{"other": 1}`), &i); err == nil {
		t.Fatalf("expected error for unknown object")
	}
}

func TestValidImageType(t *testing.T) {
	for _, ok := range []string{ImageTypeStartSpeedometer, ImageTypeEndSpeedometer, ImageTypeJourneyStop} {
		if !ValidImageType(ok) {
			t.Fatalf("%s should be valid", ok)
		}
	}
	if ValidImageType("selfie") {
		t.Fatalf("unexpected valid type")
	}
}
