// Package timerange implements the half-open [start, end) intervals used for
// reservations and ticket stays.
package timerange

import (
	"time"

	apperrors "parkinglot/internal/errors"
)

// Range is a half-open interval [Start, End). Construct it with New so that
// Start < End always holds.
type Range struct {
	Start time.Time
	End   time.Time
}

// New returns the range [start, end) or an InvalidRangeError when start >= end.
func New(start, end time.Time) (Range, error) {
	if !start.Before(end) {
		return Range{}, &apperrors.InvalidRangeError{Start: start, End: end}
	}
	return Range{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps reports whether two ranges share any instant. Ranges that only
// touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Range) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (r Range) Overlaps(other Range) bool {
	return Overlaps(r, other)
}

func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
