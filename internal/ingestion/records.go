// Package ingestion provides the LoRaWAN uplink ingestion pipeline: row
// acceptance, field normalization, batched loading, and the run orchestrator.
//
// This package defines the RecordStore, Source, and CheckpointStore interfaces
// that specify what the pipeline needs from its collaborators, without
// depending on concrete implementations. Concrete implementations (MongoDB,
// CSV files, in-memory fakes) live in internal/storage, internal/source, and
// internal/checkpoint.
package ingestion

import "time"

// Canonical field names for uplink records. CSV headers are resolved to these
// names before a RawRecord reaches the pipeline (see internal/aliasing).
const (
	FieldDeviceID           = "device_id"
	FieldGatewayID          = "gateway_id"
	FieldTimestamp          = "timestamp"
	FieldTemperature        = "temperature"
	FieldHumidity           = "humidity"
	FieldBarometricPressure = "barometric_pressure"
	FieldAnalogIn1          = "analog_in_1"
	FieldAnalogIn2          = "analog_in_2"
	FieldRSSI               = "rssi"
	FieldSNR                = "snr"
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldFrequency          = "frequency"
	FieldBandwidth          = "bandwidth"
	FieldSpreadingFactor    = "spreading_factor"
)

// RawRecord is a single input row as read from the source: an untyped mapping
// of canonical field name to string value, tagged with its 1-indexed data line
// of origin. Raw records are immutable once read.
type RawRecord struct {
	// Line is the 1-indexed data line this record was read from
	// (the header row is not counted).
	Line int64

	// Fields maps canonical field names to raw string values.
	Fields map[string]string
}

// ValueKind identifies which variant a Value holds.
type ValueKind int

// Value variants. Absent is the zero value: a field that was empty,
// unparseable, or out of range. Absent is distinct from an empty string and
// from zero.
const (
	KindAbsent ValueKind = iota
	KindString
	KindFloat
	KindInt
	KindTime
)

// Value is a typed field value in a normalized record: exactly one of
// absent, string, float, integer, or timestamp.
type Value struct {
	Kind  ValueKind
	Str   string
	Float float64
	Int   int64
	Time  time.Time
}

// Absent returns the explicit no-value Value.
func Absent() Value {
	return Value{Kind: KindAbsent}
}

// StringValue returns a Value holding a trimmed string.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// FloatValue returns a Value holding a float.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// IntValue returns a Value holding an integer.
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// TimeValue returns a Value holding a timestamp.
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// IsAbsent reports whether the value is the explicit no-value state.
func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// Interface returns the underlying value as an interface{} suitable for
// persistence, or nil when the value is absent.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindFloat:
		return v.Float
	case KindInt:
		return v.Int
	case KindTime:
		return v.Time
	case KindAbsent:
		return nil
	default:
		return nil
	}
}

// NormalizedRecord is a RawRecord with every field coerced to a typed Value or
// marked absent. It carries no reference back to its RawRecord and is
// self-contained for persistence.
type NormalizedRecord map[string]Value
