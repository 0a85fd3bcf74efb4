// Package schedule implements the temporal core of the service:
// recurrence-date computation, signup-window resolution, timezone
// display conversion and the form-unit helpers. Nothing in this
// package reads the wall clock; callers pass "now" explicitly so the
// logic stays deterministic under test.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/openmicnights/openmic/internal/model"
)

// scanBoundDays caps the forward day scan. A show whose rule matches no
// date within a year is treated as exhausted, not as an error.
const scanBoundDays = 365

var (
	// ErrUnknownCadence rejects cadence values outside the enumerated
	// set. They are configuration errors, never silently defaulted.
	ErrUnknownCadence = errors.New("unknown repeat cadence")
	// ErrCustomRepeatDays rejects a custom cadence without a positive
	// day interval.
	ErrCustomRepeatDays = errors.New("custom cadence requires a positive custom_repeat_days")
)

// DateOf truncates t to its UTC calendar date (midnight UTC).
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidWeekday reports whether name is a full English weekday name as
// produced by time.Weekday.String.
func ValidWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}

// NextOccurrence returns the first date on or after from that matches
// the show's weekday and cadence rule. ok is false when no date exists
// within the safety bound, which callers must treat as "no further
// occurrences". Configuration problems (unknown cadence, custom
// cadence without an interval) are returned as errors.
func NextOccurrence(show *model.Show, from time.Time) (time.Time, bool, error) {
	if !show.RepeatCadence.Valid() {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnknownCadence, show.RepeatCadence)
	}
	if show.RepeatCadence == model.CadenceCustom &&
		(show.CustomRepeatDays == nil || *show.CustomRepeatDays <= 0) {
		return time.Time{}, false, ErrCustomRepeatDays
	}

	anchor := DateOf(show.StartedDate)
	cand := DateOf(from)
	for i := 0; i <= scanBoundDays; i++ {
		if cand.Weekday().String() == show.DayOfWeek && cadenceMatches(show, anchor, cand) {
			return cand, true, nil
		}
		cand = cand.AddDate(0, 0, 1)
	}
	return time.Time{}, false, nil
}

// cadenceMatches applies the cadence-specific predicate to a candidate
// date that already matches the show's weekday.
func cadenceMatches(show *model.Show, anchor, cand time.Time) bool {
	days := daysBetween(anchor, cand)
	switch show.RepeatCadence {
	case model.CadenceWeekly:
		return true
	case model.CadenceBiWeekly:
		// Even week offsets from the anchor week.
		return mod(floorDiv(days, 7), 2) == 0
	case model.CadenceMonthly:
		// Same week-of-month index as the anchor (first Monday, second
		// Monday, ...). This drifts across months of different lengths;
		// operators rely on the behavior, so it stays index-based
		// rather than same-day-of-month.
		return weekOfMonth(cand) == weekOfMonth(anchor)
	case model.CadenceCustom:
		return days%*show.CustomRepeatDays == 0
	}
	return false
}

// weekOfMonth returns the zero-based week index of a date within its
// month: days 1-7 are index 0, 8-14 index 1, and so on.
func weekOfMonth(d time.Time) int {
	return (d.Day() - 1) / 7
}

// daysBetween counts whole days from a to b; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// floorDiv divides rounding toward negative infinity, matching the
// arithmetic the original recurrence rule was defined with.
func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// mod is the non-negative remainder of a/n.
func mod(a, n int) int {
	return ((a % n) + n) % n
}
