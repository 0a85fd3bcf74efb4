package schedule

import (
	"errors"
	"fmt"
)

// ErrUnknownUnit rejects form units outside the supported set.
var ErrUnknownUnit = errors.New("unknown time unit")

// unitTable is ordered largest-first so FromMinutes picks the largest
// unit that divides evenly. Months approximate to 30 days.
var unitTable = []struct {
	name    string
	minutes int
}{
	{"months", 43200},
	{"weeks", 10080},
	{"days", 1440},
	{"hours", 60},
	{"minutes", 1},
}

// ToMinutes normalizes a form value plus unit into minutes. Used by
// the show create/update edge, never by the window math itself.
func ToMinutes(value int, unit string) (int, error) {
	for _, u := range unitTable {
		if u.name == unit {
			return value * u.minutes, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
}

// FromMinutes is the inverse: it picks the largest unit that divides
// the minute count evenly, falling back to minutes. Zero is reported
// as (0, minutes); the sign of a negative count is preserved on the
// returned value.
func FromMinutes(minutes int) (int, string) {
	if minutes == 0 {
		return 0, "minutes"
	}
	sign, abs := 1, minutes
	if minutes < 0 {
		sign, abs = -1, -minutes
	}
	for _, u := range unitTable {
		if abs%u.minutes == 0 {
			return sign * abs / u.minutes, u.name
		}
	}
	return minutes, "minutes"
}
