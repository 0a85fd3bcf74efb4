package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func mondayShow(cadence model.Cadence) *model.Show {
	return &model.Show{
		DayOfWeek:     "Monday",
		RepeatCadence: cadence,
		StartedDate:   date(2024, time.January, 1), // a Monday
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	show := mondayShow(model.CadenceWeekly)

	// First occurrence may equal the anchor itself.
	got, ok, err := NextOccurrence(show, date(2024, time.January, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 1), got)

	// Successive occurrences are exactly 7 days apart.
	prev := got
	for i := 0; i < 8; i++ {
		next, ok, err := NextOccurrence(show, prev.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, prev.AddDate(0, 0, 7), next)
		prev = next
	}
}

func TestNextOccurrenceBiWeekly(t *testing.T) {
	show := mondayShow(model.CadenceBiWeekly)
	anchor := show.StartedDate

	// Walk a quarter of occurrences; every one lands a multiple of 14
	// days from the anchor.
	from := anchor
	for i := 0; i < 6; i++ {
		got, ok, err := NextOccurrence(show, from)
		require.NoError(t, err)
		require.True(t, ok)
		days := int(got.Sub(anchor).Hours() / 24)
		assert.Zero(t, days%14, "occurrence %s is %d days from anchor", got, days)
		from = got.AddDate(0, 0, 1)
	}

	// The odd-parity Monday one week after the anchor is skipped.
	got, ok, err := NextOccurrence(show, date(2024, time.January, 8))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 15), got)
}

func TestNextOccurrenceMonthlyWeekIndex(t *testing.T) {
	// Anchored on the first Monday of January 2024; from Feb 1 the next
	// occurrence is the first Monday of February (same week index 0),
	// not the same day of month.
	show := mondayShow(model.CadenceMonthly)

	got, ok, err := NextOccurrence(show, date(2024, time.February, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.February, 5), got)

	// Third-Wednesday anchor keeps its index across months.
	show = &model.Show{
		DayOfWeek:     "Wednesday",
		RepeatCadence: model.CadenceMonthly,
		StartedDate:   date(2024, time.January, 17), // third Wednesday, index 2
	}
	got, ok, err = NextOccurrence(show, date(2024, time.January, 18))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.February, 21), got)
	assert.Equal(t, 2, (got.Day()-1)/7)
}

func TestNextOccurrenceCustom(t *testing.T) {
	show := mondayShow(model.CadenceCustom)
	show.CustomRepeatDays = intp(14)

	got, ok, err := NextOccurrence(show, date(2024, time.January, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.January, 15), got)

	// A 10-day interval only coincides with a Monday every 70 days.
	show.CustomRepeatDays = intp(10)
	got, ok, err = NextOccurrence(show, date(2024, time.January, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.March, 11), got)
}

func TestNextOccurrenceExhausted(t *testing.T) {
	// A 365-day interval never lines up with a Monday again inside the
	// safety bound; that is "no further occurrences", not an error.
	show := mondayShow(model.CadenceCustom)
	show.CustomRepeatDays = intp(365)

	_, ok, err := NextOccurrence(show, date(2024, time.January, 2))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextOccurrenceConfigErrors(t *testing.T) {
	show := mondayShow(model.Cadence("fortnightly"))
	_, _, err := NextOccurrence(show, date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrUnknownCadence)

	show = mondayShow(model.CadenceCustom)
	_, _, err = NextOccurrence(show, date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrCustomRepeatDays)

	show.CustomRepeatDays = intp(0)
	_, _, err = NextOccurrence(show, date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrCustomRepeatDays)
}

func TestValidWeekday(t *testing.T) {
	assert.True(t, ValidWeekday("Monday"))
	assert.True(t, ValidWeekday("Sunday"))
	assert.False(t, ValidWeekday("monday"))
	assert.False(t, ValidWeekday("Funday"))
}
