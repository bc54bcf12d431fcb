package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for row acceptance failures.
var (
	// ErrMissingRequiredField indicates a required field is not present in the row.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrEmptyRequiredField indicates a required field is present but empty or
	// whitespace-only.
	ErrEmptyRequiredField = errors.New("empty required field")
)

// requiredFields must all be present and non-empty for a row to be accepted.
// Rows failing this gate are rejected outright: they are never normalized and
// never reach the loader.
var requiredFields = []string{
	FieldDeviceID,
	FieldGatewayID,
	FieldTimestamp,
	FieldRSSI,
	FieldSNR,
}

// RequiredFields returns the field names a row must carry to be accepted.
func RequiredFields() []string {
	out := make([]string, len(requiredFields))
	copy(out, requiredFields)

	return out
}

// Accept checks the row acceptance gate: every required field must be present
// and non-empty. Returns nil when the row is accepted, or an error wrapping
// ErrMissingRequiredField / ErrEmptyRequiredField naming the offending fields.
//
// This is a hard gate distinct from per-field coercion: a row that passes
// Accept may still have optional fields degrade to absent during
// normalization, but a row that fails Accept is excluded entirely.
func Accept(record RawRecord) error {
	var missing, empty []string

	for _, field := range requiredFields {
		value, ok := record.Fields[field]
		if !ok {
			missing = append(missing, field)

			continue
		}

		if strings.TrimSpace(value) == "" {
			empty = append(empty, field)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredField, strings.Join(missing, ", "))
	}

	if len(empty) > 0 {
		return fmt.Errorf("%w: %s", ErrEmptyRequiredField, strings.Join(empty, ", "))
	}

	return nil
}
