package utils

import (
	"strings"
	"unicode"
)

// MaxLicensePlateLength matches the ticket column size.
const MaxLicensePlateLength = 10

// NormalizeLicensePlate upper-cases a plate and drops spaces, dashes and dots
// so "abc-1234" and "ABC 1234" are stored the same way.
func NormalizeLicensePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(plate)) {
		switch {
		case r == ' ' || r == '-' || r == '.':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidLicensePlate reports whether a normalized plate can be stored.
func ValidLicensePlate(plate string) bool {
	return plate != "" && len(plate) <= MaxLicensePlateLength
}
