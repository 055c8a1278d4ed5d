package availability

import (
	"fmt"
	"strings"
)

type OverlapRule string

const (
	// StrictOverlap treats windows as half-open intervals [in, out).
	StrictOverlap OverlapRule = "strict"

	// LegacyOverlap reproduces the four-clause endpoint rule of the first
	// release. It does not detect a candidate that strictly contains an
	// existing window.
	LegacyOverlap OverlapRule = "legacy"
)

func ParseOverlapRule(s string) (OverlapRule, error) {
	switch OverlapRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrictOverlap:
		return StrictOverlap, nil
	case LegacyOverlap:
		return LegacyOverlap, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOverlapRule, s)
}

// Overlaps reports whether candidate conflicts with existing.
func (r OverlapRule) Overlaps(candidate, existing Window) bool {
	if r == LegacyOverlap {
		return legacyOverlaps(candidate, existing)
	}
	return candidate.CheckIn.Before(existing.CheckOut) && candidate.CheckOut.After(existing.CheckIn)
}

func legacyOverlaps(n, e Window) bool {
	switch {
	case n.CheckIn.After(e.CheckIn) && n.CheckIn.Before(e.CheckOut):
		return true
	case n.CheckIn.Equal(e.CheckIn):
		return true
	case n.CheckOut.After(e.CheckIn) && n.CheckOut.Before(e.CheckOut):
		return true
	case n.CheckOut.Equal(e.CheckOut):
		return true
	}
	return false
}
