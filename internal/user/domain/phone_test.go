package domain

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"+7 (912) 123-45-67", "+79121234567"},
		{"8-912-123-45-67", "89121234567"},
		{"  +1 555 0100 ext. 12", "+1555010012"},
		{"", ""},
		{"abc", ""},
		{"++7", "++7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizePhone(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := NormalizePhone(got); again != got {
				t.Errorf("NormalizePhone not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+7 (912) 123-45-67", true},
		{"+79121234567", true},
		{"79121234567", false},
		{"+7912123456", false},
		{"+791212345678", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
