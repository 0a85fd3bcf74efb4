package schedule

import (
	"fmt"
	"time"

	"github.com/openmicnights/openmic/internal/model"
)

// Status is the signup state of an instance at a point in time.
type Status string

const (
	StatusNotOpen Status = "not_open"
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
)

// Window is a resolved signup window for one instance, in UTC.
// NoOpenBound marks the legacy deadline model, which has no lower
// bound: signups are open from the moment the instance exists.
type Window struct {
	OpensAt     time.Time
	ClosesAt    time.Time
	NoOpenBound bool
}

// Status classifies now against the window. The boundary instants
// themselves count as open; only strictly-before-open and
// strictly-after-close fall outside.
func (w Window) Status(now time.Time) Status {
	if !w.NoOpenBound && now.Before(w.OpensAt) {
		return StatusNotOpen
	}
	if now.After(w.ClosesAt) {
		return StatusClosed
	}
	return StatusOpen
}

type policyKind uint8

const (
	policyOffsets policyKind = iota + 1
	policyLegacyDeadline
)

// WindowPolicy is the tagged variant behind a show's signup timing:
// either per-instance minute offsets, or the older whole-hours-before
// deadline. It is resolved once into a Window at the edge so
// downstream logic only ever sees absolute instants.
type WindowPolicy struct {
	kind        policyKind
	openMin     int
	closeMin    int
	hoursBefore int
}

// OffsetsPolicy builds the minute-offset variant. openMin minutes
// before start signups open; closeMin minutes before start they close,
// with negative closeMin meaning they stay open that many minutes
// after the show has started.
func OffsetsPolicy(openMin, closeMin int) WindowPolicy {
	return WindowPolicy{kind: policyOffsets, openMin: openMin, closeMin: closeMin}
}

// LegacyDeadlinePolicy builds the backward-compatible variant: signups
// close a whole number of hours before start and have no open bound.
func LegacyDeadlinePolicy(hoursBefore int) WindowPolicy {
	return WindowPolicy{kind: policyLegacyDeadline, hoursBefore: hoursBefore}
}

// PolicyFor selects the policy a show is configured with. The minute
// offsets win when both are present; otherwise the legacy deadline
// applies.
func PolicyFor(show *model.Show) WindowPolicy {
	if show.SignupsOpen != nil && show.SignupsClosed != nil {
		return OffsetsPolicy(*show.SignupsOpen, *show.SignupsClosed)
	}
	return LegacyDeadlinePolicy(show.SignupWindowAfterHours)
}

// Resolve turns the policy into absolute UTC open/close instants for
// an instance starting at startUTC.
func (p WindowPolicy) Resolve(startUTC time.Time) Window {
	if p.kind == policyLegacyDeadline {
		return Window{
			ClosesAt:    startUTC.Add(-time.Duration(p.hoursBefore) * time.Hour),
			NoOpenBound: true,
		}
	}
	w := Window{OpensAt: startUTC.Add(-time.Duration(p.openMin) * time.Minute)}
	if p.closeMin >= 0 {
		w.ClosesAt = startUTC.Add(-time.Duration(p.closeMin) * time.Minute)
	} else {
		w.ClosesAt = startUTC.Add(time.Duration(-p.closeMin) * time.Minute)
	}
	return w
}

// StartAt combines a calendar date with a stored "HH:MM:SS" clock
// string into the UTC start instant. Stored clocks are already UTC by
// the storage convention; the show's declared timezone was applied
// when the host entered the time.
func StartAt(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		t, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid start time %q: %w", clock, err)
		}
	}
	d := DateOf(date)
	return d.Add(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second), nil
}

// WindowFor resolves the signup window for one instance, honoring
// per-instance start-time overrides.
func WindowFor(show *model.Show, inst *model.ShowInstance) (Window, error) {
	start, err := StartAt(inst.InstanceDate, inst.EffectiveStartTime(show))
	if err != nil {
		return Window{}, err
	}
	return PolicyFor(show).Resolve(start), nil
}
