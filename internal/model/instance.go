package model

import "time"

// ShowInstance is one concrete dated occurrence of a Show. Exactly one
// instance exists per (show_id, instance_date); the materializer is
// responsible for keeping that invariant when backfilling.
//
// MaxSignupsOverride, StartTimeOverride and EndTimeOverride shadow the
// parent show's values for this date only; use the Effective* methods
// to read them with fallback.
type ShowInstance struct {
	ID                 uint64     // show_instances.id
	ShowID             uint64     // show_instances.show_id
	InstanceDate       time.Time  // show_instances.instance_date (date)
	IsCancelled        bool       // show_instances.is_cancelled
	CancellationReason *string    // show_instances.cancellation_reason (nullable)
	CancelledAt        *time.Time // show_instances.cancelled_at (nullable)
	MaxSignupsOverride *int       // show_instances.max_signups_override (nullable)
	StartTimeOverride  *string    // show_instances.start_time_override (nullable "HH:MM:SS" UTC)
	EndTimeOverride    *string    // show_instances.end_time_override (nullable)
	CreatedAt          time.Time  // show_instances.created_at
}

// EffectiveMaxSignups returns the instance capacity, falling back to
// the parent show's default.
func (i *ShowInstance) EffectiveMaxSignups(s *Show) int {
	if i.MaxSignupsOverride != nil {
		return *i.MaxSignupsOverride
	}
	return s.MaxSignups
}

// EffectiveStartTime returns the UTC start clock for this date,
// falling back to the parent show's start time.
func (i *ShowInstance) EffectiveStartTime(s *Show) string {
	if i.StartTimeOverride != nil {
		return *i.StartTimeOverride
	}
	return s.StartTime
}

// EffectiveEndTime returns the UTC end clock for this date, or nil
// when neither the instance nor the show define one.
func (i *ShowInstance) EffectiveEndTime(s *Show) *string {
	if i.EndTimeOverride != nil {
		return i.EndTimeOverride
	}
	return s.EndTime
}

// Cancel marks the instance cancelled with an optional reason.
func (i *ShowInstance) Cancel(reason string, at time.Time) {
	i.IsCancelled = true
	if reason != "" {
		i.CancellationReason = &reason
	}
	t := at
	i.CancelledAt = &t
}

// Restore reverses a cancellation, clearing the reason and timestamp.
func (i *ShowInstance) Restore() {
	i.IsCancelled = false
	i.CancellationReason = nil
	i.CancelledAt = nil
}
