package domain

import (
	"errors"
	"testing"
)

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		raw       string
		wantFirst string
		wantLast  string
		wantErr   bool
	}{
		{"John Doe", "John", "Doe", false},
		{"  John   Doe ", "John", "Doe", false},
		{"Ann", "Ann", "", false},
		{"", "", "", true},
		{"   ", "", "", true},
		{"John Ronald Tolkien", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			first, last, err := SplitFullName(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) || ve.Field != "fullName" {
					t.Errorf("err = %#v, want ValidationError on fullName", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitFullName: %v", err)
			}
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("got (%q, %q), want (%q, %q)", first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}
