package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		value int
		unit  string
		want  int
	}{
		{2, "minutes", 2},
		{2, "hours", 120},
		{2, "days", 2880},
		{2, "weeks", 20160},
		{2, "months", 86400},
		{0, "days", 0},
		{-15, "minutes", -15},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.value, tc.unit)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%d %s", tc.value, tc.unit)
	}

	_, err := ToMinutes(1, "fortnights")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestFromMinutesPicksLargestEvenUnit(t *testing.T) {
	cases := []struct {
		minutes  int
		wantVal  int
		wantUnit string
	}{
		{0, 0, "minutes"},
		{120, 2, "hours"},
		{2880, 2, "days"},
		{20160, 2, "weeks"},
		{86400, 2, "months"},
		{45, 45, "minutes"},
		{90, 90, "minutes"},
		{-120, -2, "hours"},
	}
	for _, tc := range cases {
		val, unit := FromMinutes(tc.minutes)
		assert.Equal(t, tc.wantVal, val, "minutes=%d", tc.minutes)
		assert.Equal(t, tc.wantUnit, unit, "minutes=%d", tc.minutes)
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, minutes := range []int{1, 60, 1440, 10080, 43200, 2880, 45} {
		val, unit := FromMinutes(minutes)
		back, err := ToMinutes(val, unit)
		require.NoError(t, err)
		assert.Equal(t, minutes, back)
	}
}
