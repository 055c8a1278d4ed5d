package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		case unicode.IsControl(r):
		default:
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

func NormalizeSize(size string) string {
	return TrimAndNormalize(size)
}

func NormalizeAmenity(amenity string) string {
	return strings.ToLower(TrimAndNormalize(amenity))
}

// NormalizeEnum upper-cases a value meant to match a string enum such as an
// accommodation type or booking status.
func NormalizeEnum(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NormalizeEmail lowercases an address so lookups ignore case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}
