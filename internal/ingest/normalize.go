package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/callingest/internal/config"
	"github.com/JonMunkholm/callingest/internal/store"
)

// Column header names of the source feed, as produced by the stream reader
// (cleaned and lowercased).
const (
	colRecordID     = "recordid"
	colCallDateTime = "calldatetime"
	colPriority     = "priority"
	colDistrict     = "district"
	colDescription  = "description"
	colAddress      = "incidentlocation"
	colLocation     = "location"
)

// callTimeLayouts are tried in order when parsing the call timestamp.
// The feed's native format comes first.
var callTimeLayouts = []string{
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// SkipReason explains why a row was rejected by normalization.
type SkipReason string

const (
	// SkipNone means the row was accepted.
	SkipNone SkipReason = ""

	// SkipMissingID means the call identifier was missing, empty, or the
	// feed's null marker.
	SkipMissingID SkipReason = "missing_id"

	// SkipWrongYear means the call timestamp was unparseable or falls
	// outside the processing year.
	SkipWrongYear SkipReason = "wrong_year_or_unparseable"
)

// NormalizerConfig is the fixed configuration a Normalizer is built from.
type NormalizerConfig struct {
	// NullMarker is the literal cell value treated as absent, in addition
	// to empty cells.
	NullMarker string

	// UnknownPlaceholder substitutes absent district/description/address.
	UnknownPlaceholder string

	// Priorities maps the feed's exact priority strings to the normalized
	// enum. Unlisted values map to PriorityUnknown.
	Priorities map[string]store.Priority

	// Year is the only calendar year accepted; rows dated in any other year
	// are skipped.
	Year int
}

// NormalizerConfigFrom builds a NormalizerConfig from app configuration,
// accepting records dated in the given calendar year.
func NormalizerConfigFrom(cfg config.IngestConfig, year int) NormalizerConfig {
	return NormalizerConfig{
		NullMarker:         cfg.NullMarker,
		UnknownPlaceholder: cfg.UnknownPlaceholder,
		Priorities: map[string]store.Priority{
			cfg.PriorityNonEmergency: store.PriorityNonEmergency,
			cfg.PriorityLow:          store.PriorityLow,
			cfg.PriorityMedium:       store.PriorityMedium,
			cfg.PriorityHigh:         store.PriorityHigh,
		},
		Year: year,
	}
}

// Normalizer turns raw CSV rows into call records, or decides to skip them.
// It is pure and total: every malformed field has a defined fallback, and no
// input raises an error.
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a Normalizer. A zero Year defaults to the current
// calendar year.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	return &Normalizer{cfg: cfg}
}

// Normalize validates and transforms one row's fields. It returns the record
// to store, or a nil record with the reason the row is skipped.
func (n *Normalizer) Normalize(fields map[string]string) (*store.CallRecord, SkipReason) {
	key := n.value(fields[colRecordID])
	if key == "" {
		return nil, SkipMissingID
	}

	// An absent timestamp gets the zero-time sentinel; a present but
	// unparseable or out-of-year one rejects the row.
	var callTime time.Time
	if raw := n.value(fields[colCallDateTime]); raw != "" {
		t, ok := parseCallTime(raw)
		if !ok || t.Year() != n.cfg.Year {
			return nil, SkipWrongYear
		}
		callTime = t
	}

	rec := &store.CallRecord{
		NaturalKey:  key,
		CallTime:    callTime,
		Priority:    n.priority(fields[colPriority]),
		District:    n.orUnknown(fields[colDistrict]),
		Description: n.orUnknown(fields[colDescription]),
		Address:     n.orUnknown(fields[colAddress]),
	}
	rec.Latitude, rec.Longitude = ParseCoordinates(n.value(fields[colLocation]))

	return rec, SkipNone
}

// value collapses empty cells and the feed's null marker to "".
func (n *Normalizer) value(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == n.cfg.NullMarker {
		return ""
	}
	return s
}

// orUnknown substitutes the configured placeholder for absent values.
func (n *Normalizer) orUnknown(s string) string {
	if v := n.value(s); v != "" {
		return v
	}
	return n.cfg.UnknownPlaceholder
}

// priority maps the raw priority string via the exact-match table.
func (n *Normalizer) priority(s string) store.Priority {
	if p, ok := n.cfg.Priorities[n.value(s)]; ok {
		return p
	}
	return store.PriorityUnknown
}

func parseCallTime(s string) (time.Time, bool) {
	for _, layout := range callTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCoordinates extracts latitude and longitude from a combined location
// string shaped like "<address> (<lat>, <lon>)". The parse is best-effort:
// anything malformed degrades to 0,0 rather than rejecting the record.
func ParseCoordinates(location string) (lat, lon float64) {
	i := strings.Index(location, "(")
	if i < 0 {
		return 0, 0
	}

	coords := location[i+1:]
	coords = strings.TrimSuffix(coords, ")")
	coords = strings.ReplaceAll(coords, " ", "")

	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return 0, 0
	}

	lat, errLat := strconv.ParseFloat(parts[0], 64)
	lon, errLon := strconv.ParseFloat(parts[1], 64)
	if errLat != nil || errLon != nil {
		return 0, 0
	}
	return lat, lon
}
