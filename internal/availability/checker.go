package availability

import (
	"fmt"
	"strings"
	"time"
)

const noUnitsLeft = "There are no available accommodations left for booking."

type Request struct {
	AccommodationID string
	Candidate       Window
	Capacity        int
	Existing        []Reservation
	// ExcludeID is the booking being updated; it never conflicts with itself.
	ExcludeID string
	// Now is the reference time for the check-in check. Zero skips it.
	Now time.Time
}

type Decision struct {
	Accepted  bool
	Conflicts []Window
}

// Reason is the user-facing explanation of a rejected decision.
func (d Decision) Reason() string {
	if d.Accepted {
		return ""
	}
	lines := make([]string, 0, len(d.Conflicts))
	for _, w := range d.Conflicts {
		lines = append(lines, fmt.Sprintf("Accommodation is %s.", w))
	}
	return noUnitsLeft + "\n" + strings.Join(lines, "\n")
}

// Summaries lists each conflicting window as "booked from X to Y".
func (d Decision) Summaries() []string {
	out := make([]string, 0, len(d.Conflicts))
	for _, w := range d.Conflicts {
		out = append(out, w.String())
	}
	return out
}

type Checker struct {
	rule OverlapRule
}

func NewChecker(rule OverlapRule) *Checker {
	if rule == "" {
		rule = StrictOverlap
	}
	return &Checker{rule: rule}
}

func (c *Checker) Rule() OverlapRule {
	return c.rule
}

// Check decides whether req.Candidate fits on the accommodation. A rejection
// is a Decision, not an error; errors are reserved for malformed requests.
func (c *Checker) Check(req Request) (Decision, error) {
	if err := req.Candidate.Validate(); err != nil {
		return Decision{}, err
	}
	if !req.Now.IsZero() && req.Candidate.CheckIn.Before(req.Now) {
		return Decision{}, fmt.Errorf("%w: %s", ErrCheckInPast, req.Candidate.CheckIn.Format(WindowLayout))
	}
	if req.Capacity < 0 {
		return Decision{}, fmt.Errorf("%w: %d", ErrNegativeCapacity, req.Capacity)
	}

	conflicts := c.Conflicts(req.Candidate, req.Existing, req.ExcludeID)
	if len(conflicts) == 0 {
		return Decision{Accepted: true}, nil
	}
	if req.Capacity > len(conflicts) {
		return Decision{Accepted: true, Conflicts: conflicts}, nil
	}
	return Decision{Accepted: false, Conflicts: conflicts}, nil
}

// Conflicts returns the windows of active reservations overlapping candidate.
func (c *Checker) Conflicts(candidate Window, existing []Reservation, excludeID string) []Window {
	var out []Window
	for _, r := range existing {
		if !r.Status.IsActive() {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if c.rule.Overlaps(candidate, r.Window) {
			out = append(out, r.Window)
		}
	}
	return out
}
