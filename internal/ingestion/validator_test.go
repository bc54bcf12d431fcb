package ingestion

import (
	"errors"
	"testing"
)

func validRow(line int64) RawRecord {
	return RawRecord{
		Line: line,
		Fields: map[string]string{
			FieldDeviceID:  "dev-001",
			FieldGatewayID: "gw-01",
			FieldTimestamp: "2024-03-01 12:00:00",
			FieldRSSI:      "-98",
			FieldSNR:       "7.5",
		},
	}
}

func TestAccept_ValidRow(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	if err := Accept(validRow(1)); err != nil {
		t.Errorf("Accept() error = %v, want nil", err)
	}
}

func TestAccept_MissingRequiredField(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	for _, field := range RequiredFields() {
		t.Run(field, func(t *testing.T) {
			row := validRow(1)
			delete(row.Fields, field)

			err := Accept(row)
			if !errors.Is(err, ErrMissingRequiredField) {
				t.Errorf("Accept() error = %v, want ErrMissingRequiredField", err)
			}
		})
	}
}

func TestAccept_EmptyRequiredField(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name  string
		value string
	}{
		{name: "empty string", value: ""},
		{name: "whitespace only", value: "   "},
		{name: "tab", value: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow(1)
			row.Fields[FieldSNR] = tt.value

			err := Accept(row)
			if !errors.Is(err, ErrEmptyRequiredField) {
				t.Errorf("Accept() error = %v, want ErrEmptyRequiredField", err)
			}
		})
	}
}

func TestAccept_ExtraFieldsIgnored(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	row := validRow(1)
	row.Fields["vendor_extension"] = ""

	if err := Accept(row); err != nil {
		t.Errorf("Accept() error = %v, want nil for empty optional field", err)
	}
}
