package domain

import "strings"

const validPhoneLen = 12

// NormalizePhone keeps only '+' and ASCII digits. Applying it twice changes nothing.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, raw)
}

// IsValidPhone reports whether s normalizes to '+' followed by 11 digits.
func IsValidPhone(s string) bool {
	p := NormalizePhone(s)
	return strings.HasPrefix(p, "+") && len(p) == validPhoneLen
}
