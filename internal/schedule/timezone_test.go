package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUTCRoundTrip(t *testing.T) {
	zones := []string{"America/New_York", "Europe/Berlin", "Asia/Tokyo", "UTC"}
	instants := []time.Time{
		time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 4, 23, 59, 59, 0, time.UTC),
		// Around the US spring-forward transition.
		time.Date(2024, time.March, 10, 6, 30, 0, 0, time.UTC),
	}
	for _, tz := range zones {
		for _, instant := range instants {
			local, err := UTCToLocal(instant, tz)
			require.NoError(t, err)
			back, err := LocalToUTC(local, tz)
			require.NoError(t, err)
			diff := back.Sub(instant)
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, time.Second, "%s in %s", instant, tz)
		}
	}
}

func TestUTCToLocalOffset(t *testing.T) {
	// Noon UTC in January is 07:00 in New York (EST, UTC-5).
	local, err := UTCToLocal(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 7, local.Hour())
}

func TestUnknownTimezone(t *testing.T) {
	_, err := UTCToLocal(time.Now(), "America/Nowhere")
	assert.ErrorIs(t, err, ErrUnknownTimezone)

	_, err = LocalToUTC(time.Now(), "")
	assert.ErrorIs(t, err, ErrUnknownTimezone)

	_, err = LoadZone("Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrUnknownTimezone)
}
