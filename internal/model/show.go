package model

import "time"

// Cadence enumerates the supported recurrence rules for a show.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiWeekly Cadence = "bi-weekly"
	CadenceMonthly  Cadence = "monthly"
	CadenceCustom   Cadence = "custom"
)

// Valid reports whether c is one of the enumerated cadences. Values
// outside the set are configuration errors and must never be defaulted.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceWeekly, CadenceBiWeekly, CadenceMonthly, CadenceCustom:
		return true
	}
	return false
}

// Show is a recurring open-mic event template. Concrete dated
// occurrences are ShowInstance rows produced by the materializer.
//
// All clock times are stored in UTC; Timezone records the venue's IANA
// zone and is used only for display conversion and for interpreting
// host-entered local times at the edge.
//
// Fields:
//  ID                     – primary key identifier.
//  Name                   – show name.
//  Venue                  – venue name.
//  Address                – street address of the venue.
//  Description            – free-form description.
//  Timezone               – IANA zone name (e.g. "America/New_York").
//  DayOfWeek              – weekday name the show occurs on ("Monday", ...).
//  StartTime              – show start as "HH:MM:SS" in UTC.
//  EndTime                – optional end as "HH:MM:SS" in UTC.
//  RepeatCadence          – weekly | bi-weekly | monthly | custom.
//  CustomRepeatDays       – day interval, required when cadence is custom.
//  StartedDate            – recurrence anchor date.
//  EndedDate              – set when the show is soft-deleted.
//  IsDeleted              – soft-delete flag.
//  MaxSignups             – default lineup capacity.
//  SignupsOpen            – minutes before start that signups open (nil = legacy model).
//  SignupsClosed          – minutes before start that signups close; negative
//                           means signups stay open that many minutes after start.
//  SignupWindowAfterHours – legacy hours-before deadline, honored when the
//                           minute offsets are unset.
//  OwnerID                – user who created the show.
//  DefaultHostID          – optional default host for instances.
type Show struct {
	ID                     uint64     // shows.id
	Name                   string     // shows.name
	Venue                  string     // shows.venue
	Address                string     // shows.address
	Description            string     // shows.description
	Timezone               string     // shows.timezone
	DayOfWeek              string     // shows.day_of_week
	StartTime              string     // shows.start_time ("HH:MM:SS" UTC)
	EndTime                *string    // shows.end_time (nullable)
	RepeatCadence          Cadence    // shows.repeat_cadence
	CustomRepeatDays       *int       // shows.custom_repeat_days (nullable)
	StartedDate            time.Time  // shows.started_date (date)
	EndedDate              *time.Time // shows.ended_date (nullable date)
	IsDeleted              bool       // shows.is_deleted
	MaxSignups             int        // shows.max_signups
	SignupsOpen            *int       // shows.signups_open (nullable minutes)
	SignupsClosed          *int       // shows.signups_closed (nullable minutes)
	SignupWindowAfterHours int        // shows.signup_window_after_hours
	OwnerID                uint64     // shows.owner_id
	DefaultHostID          *uint64    // shows.default_host_id (nullable)
	CreatedAt              time.Time  // shows.created_at
	UpdatedAt              time.Time  // shows.updated_at
}

// IsActive reports whether the show still recurs: not soft-deleted and
// without an ended date.
func (s *Show) IsActive() bool {
	return !s.IsDeleted && s.EndedDate == nil
}

// SoftDelete marks the show ended as of the given date. Instances and
// signups referencing it are kept.
func (s *Show) SoftDelete(endedOn time.Time) {
	d := endedOn
	s.IsDeleted = true
	s.EndedDate = &d
}

// Undelete reverses a soft delete.
func (s *Show) Undelete() {
	s.IsDeleted = false
	s.EndedDate = nil
}
