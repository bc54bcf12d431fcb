package ingestion

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Geographic coordinate bounds. Coordinates outside these ranges are dropped
// to absent after float coercion, not rejected.
const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0
)

// floatFields are coerced to float64 during normalization.
var floatFields = map[string]bool{
	FieldTemperature:        true,
	FieldHumidity:           true,
	FieldBarometricPressure: true,
	FieldAnalogIn1:          true,
	FieldAnalogIn2:          true,
	FieldRSSI:               true,
	FieldSNR:                true,
	FieldLatitude:           true,
	FieldLongitude:          true,
	FieldFrequency:          true,
	FieldBandwidth:          true,
}

// intFields are coerced to int64 and must hold a whole number.
var intFields = map[string]bool{
	FieldSpreadingFactor: true,
}

// timestampLayouts is the fixed ordered list of accepted date-time formats.
// The first layout that parses wins.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04:05.999999",
}

// Normalize coerces every field of a raw record to a typed Value. It is a pure
// function and never fails: a field that is empty, unparseable, or out of
// range becomes absent, and one field's coercion failure never affects sibling
// fields or rejects the row.
//
// Coercion rules:
//   - empty / whitespace-only values → absent
//   - float fields: decimal parse, failure → absent
//   - latitude/longitude: float parse, then bounds check, out of range → absent
//   - integer fields: decimal parse requiring a whole number, otherwise absent
//   - timestamp: first matching layout from timestampLayouts, no match → absent
//   - everything else: trimmed string
func Normalize(record RawRecord) NormalizedRecord {
	normalized := make(NormalizedRecord, len(record.Fields))

	for field, raw := range record.Fields {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			normalized[field] = Absent()

			continue
		}

		switch {
		case field == FieldTimestamp:
			normalized[field] = parseTimestamp(trimmed)
		case field == FieldLatitude:
			normalized[field] = boundedFloat(trimmed, minLatitude, maxLatitude)
		case field == FieldLongitude:
			normalized[field] = boundedFloat(trimmed, minLongitude, maxLongitude)
		case floatFields[field]:
			normalized[field] = parseFloat(trimmed)
		case intFields[field]:
			normalized[field] = parseInt(trimmed)
		default:
			normalized[field] = StringValue(trimmed)
		}
	}

	return normalized
}

func parseFloat(s string) Value {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Absent()
	}

	return FloatValue(f)
}

// boundedFloat parses a coordinate and drops it to absent when outside
// [min, max]. Invalid coordinates are dropped, not rejected.
func boundedFloat(s string, min, max float64) Value {
	v := parseFloat(s)
	if v.IsAbsent() {
		return v
	}

	if v.Float < min || v.Float > max {
		return Absent()
	}

	return v
}

// parseInt accepts decimal notation ("7" or "7.0") but requires the value to
// be a whole number; fractional values degrade to absent.
func parseInt(s string) Value {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Absent()
	}

	if f != math.Trunc(f) {
		return Absent()
	}

	return IntValue(int64(f))
}

func parseTimestamp(s string) Value {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeValue(t)
		}
	}

	return Absent()
}
