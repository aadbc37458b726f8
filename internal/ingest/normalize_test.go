package ingest

import (
	"testing"
	"time"

	"github.com/JonMunkholm/callingest/internal/store"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(NormalizerConfig{
		NullMarker:         "NULL",
		UnknownPlaceholder: "Unknown",
		Priorities: map[string]store.Priority{
			"Non-Emergency": store.PriorityNonEmergency,
			"Low":           store.PriorityLow,
			"Medium":        store.PriorityMedium,
			"High":          store.PriorityHigh,
		},
		Year: 2024,
	})
}

func fields(overrides map[string]string) map[string]string {
	f := map[string]string{
		colRecordID:     "P241234567",
		colCallDateTime: "07/15/2024 13:45:00",
		colPriority:     "Medium",
		colDistrict:     "ND",
		colDescription:  "DISORDERLY",
		colAddress:      "100 N CALVERT ST",
		colLocation:     "100 N CALVERT ST (39.290882, -76.610759)",
	}
	for k, v := range overrides {
		f[k] = v
	}
	return f
}

func TestNormalize_WellFormedRow(t *testing.T) {
	rec, skip := testNormalizer().Normalize(fields(nil))
	if skip != SkipNone {
		t.Fatalf("Normalize() skip = %q, want accept", skip)
	}

	if rec.NaturalKey != "P241234567" {
		t.Errorf("NaturalKey = %q, want %q", rec.NaturalKey, "P241234567")
	}
	want := time.Date(2024, 7, 15, 13, 45, 0, 0, time.UTC)
	if !rec.CallTime.Equal(want) {
		t.Errorf("CallTime = %v, want %v", rec.CallTime, want)
	}
	if rec.Priority != store.PriorityMedium {
		t.Errorf("Priority = %q, want %q", rec.Priority, store.PriorityMedium)
	}
	if rec.District != "ND" {
		t.Errorf("District = %q, want %q", rec.District, "ND")
	}
	if rec.Latitude != 39.290882 || rec.Longitude != -76.610759 {
		t.Errorf("coordinates = (%v, %v), want (39.290882, -76.610759)", rec.Latitude, rec.Longitude)
	}
}

func TestNormalize_MissingID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"null marker", "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip := testNormalizer().Normalize(fields(map[string]string{colRecordID: tt.id}))
			if skip != SkipMissingID {
				t.Errorf("Normalize() skip = %q, want %q", skip, SkipMissingID)
			}
		})
	}
}

func TestNormalize_YearFilter(t *testing.T) {
	tests := []struct {
		name     string
		dateTime string
		want     SkipReason
	}{
		{"current year", "01/02/2024 03:04:05", SkipNone},
		{"prior year", "01/02/2023 03:04:05", SkipWrongYear},
		{"next year", "01/02/2025 03:04:05", SkipWrongYear},
		{"unparseable", "not a date", SkipWrongYear},
		{"iso format current year", "2024-06-01 10:00:00", SkipNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip := testNormalizer().Normalize(fields(map[string]string{colCallDateTime: tt.dateTime}))
			if skip != tt.want {
				t.Errorf("Normalize() skip = %q, want %q", skip, tt.want)
			}
		})
	}
}

func TestNormalize_AbsentTimestampUsesSentinel(t *testing.T) {
	for _, raw := range []string{"", "NULL"} {
		rec, skip := testNormalizer().Normalize(fields(map[string]string{colCallDateTime: raw}))
		if skip != SkipNone {
			t.Fatalf("Normalize() with timestamp %q skip = %q, want accept", raw, skip)
		}
		if !rec.CallTime.IsZero() {
			t.Errorf("CallTime = %v, want zero sentinel", rec.CallTime)
		}
	}
}

func TestNormalize_PriorityMapping(t *testing.T) {
	tests := []struct {
		raw  string
		want store.Priority
	}{
		{"Non-Emergency", store.PriorityNonEmergency},
		{"Low", store.PriorityLow},
		{"Medium", store.PriorityMedium},
		{"High", store.PriorityHigh},
		{"XYZ", store.PriorityUnknown},
		{"low", store.PriorityUnknown}, // exact match only
		{"", store.PriorityUnknown},
		{"NULL", store.PriorityUnknown},
	}

	for _, tt := range tests {
		rec, skip := testNormalizer().Normalize(fields(map[string]string{colPriority: tt.raw}))
		if skip != SkipNone {
			t.Fatalf("Normalize() with priority %q skip = %q, want accept", tt.raw, skip)
		}
		if rec.Priority != tt.want {
			t.Errorf("priority %q = %q, want %q", tt.raw, rec.Priority, tt.want)
		}
	}
}

func TestNormalize_UnknownPlaceholders(t *testing.T) {
	rec, skip := testNormalizer().Normalize(fields(map[string]string{
		colDistrict:    "",
		colDescription: "NULL",
		colAddress:     "  ",
	}))
	if skip != SkipNone {
		t.Fatalf("Normalize() skip = %q, want accept", skip)
	}

	if rec.District != "Unknown" {
		t.Errorf("District = %q, want %q", rec.District, "Unknown")
	}
	if rec.Description != "Unknown" {
		t.Errorf("Description = %q, want %q", rec.Description, "Unknown")
	}
	if rec.Address != "Unknown" {
		t.Errorf("Address = %q, want %q", rec.Address, "Unknown")
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		location string
		wantLat  float64
		wantLon  float64
	}{
		{"well formed", "123 Main St (39.29, -76.61)", 39.29, -76.61},
		{"extra spaces", "123 Main St ( 39.29 , -76.61 )", 39.29, -76.61},
		{"no parenthetical", "123 Main St", 0, 0},
		{"non-numeric tokens", "(abc, def)", 0, 0},
		{"one token", "123 Main St (39.29)", 0, 0},
		{"three tokens", "123 Main St (39.29, -76.61, 7)", 0, 0},
		{"missing closing paren", "123 Main St (39.29, -76.61", 39.29, -76.61},
		{"empty", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := ParseCoordinates(tt.location)
			if lat != tt.wantLat || lon != tt.wantLon {
				t.Errorf("ParseCoordinates(%q) = (%v, %v), want (%v, %v)",
					tt.location, lat, lon, tt.wantLat, tt.wantLon)
			}
		})
	}
}

func TestNormalize_MalformedCoordinatesDoNotSkip(t *testing.T) {
	rec, skip := testNormalizer().Normalize(fields(map[string]string{colLocation: "garbage (x, y)"}))
	if skip != SkipNone {
		t.Fatalf("Normalize() skip = %q, want accept", skip)
	}
	if rec.Latitude != 0 || rec.Longitude != 0 {
		t.Errorf("coordinates = (%v, %v), want (0, 0)", rec.Latitude, rec.Longitude)
	}
}

func TestNewNormalizer_DefaultYear(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{UnknownPlaceholder: "Unknown"})
	if n.cfg.Year != time.Now().Year() {
		t.Errorf("default Year = %d, want %d", n.cfg.Year, time.Now().Year())
	}
}
