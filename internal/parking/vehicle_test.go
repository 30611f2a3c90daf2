package parking

import (
	"errors"
	"testing"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"mercosul plate", "ABC1D23", "ABC1D23", false},
		{"legacy plate", "ABC1234", "ABC1234", false},
		{"lowercase", "abc1d23", "ABC1D23", false},
		{"hyphen separator", "ABC-1234", "ABC1234", false},
		{"surrounding spaces", "  abc1d23  ", "ABC1D23", false},
		{"too short", "AB1234", "", true},
		{"too long", "ABCD1234", "", true},
		{"letters only", "ABCDEFG", "", true},
		{"empty", "", "", true},
		{"separators only", "---", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePlate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlate) {
					t.Errorf("Expected ErrInvalidPlate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %s", err.Error())
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
