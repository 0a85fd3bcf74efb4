package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTimezone is wrapped around failures to resolve an IANA
// zone name so callers can surface it as a validation error.
var ErrUnknownTimezone = errors.New("unknown timezone")

// LoadZone resolves an IANA zone name. Unknown or empty names fail
// with ErrUnknownTimezone rather than defaulting.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// UTCToLocal converts a UTC instant to wall-clock time in tz. Display
// only; stored values stay UTC.
func UTCToLocal(t time.Time, tz string) (time.Time, error) {
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().In(loc), nil
}

// LocalToUTC interprets the clock fields of t as wall time in tz and
// returns the corresponding UTC instant. Together with UTCToLocal it
// round-trips for any valid zone.
func LocalToUTC(t time.Time, tz string) (time.Time, error) {
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC(), nil
}
