package domain

import "strings"

// SplitFullName splits a full name into first and last name. A single token yields an empty
// last name; zero or more than two tokens is a ValidationError.
func SplitFullName(raw string) (first, last string, err error) {
	parts := strings.Fields(raw)
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", invalid("fullName", "must contain only first name and last name, current split result %q", parts)
	}
}
