package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
)

func TestWindowBoundaries(t *testing.T) {
	// Opens 2 days before, closes at start.
	start := time.Date(2024, time.January, 15, 19, 30, 0, 0, time.UTC)
	w := OffsetsPolicy(2880, 0).Resolve(start)

	assert.Equal(t, time.Date(2024, time.January, 13, 19, 30, 0, 0, time.UTC), w.OpensAt)
	assert.Equal(t, start, w.ClosesAt)

	assert.Equal(t, StatusNotOpen, w.Status(time.Date(2024, time.January, 13, 19, 29, 59, 0, time.UTC)))
	assert.Equal(t, StatusOpen, w.Status(time.Date(2024, time.January, 13, 19, 30, 1, 0, time.UTC)))
	assert.Equal(t, StatusClosed, w.Status(time.Date(2024, time.January, 15, 19, 30, 1, 0, time.UTC)))

	// Boundary instants themselves are open.
	assert.Equal(t, StatusOpen, w.Status(w.OpensAt))
	assert.Equal(t, StatusOpen, w.Status(w.ClosesAt))
}

func TestWindowNegativeCloseOffset(t *testing.T) {
	// Negative close offset keeps signups open after the show starts.
	start := time.Date(2024, time.June, 3, 20, 0, 0, 0, time.UTC)
	w := OffsetsPolicy(1440, -15).Resolve(start)

	assert.Equal(t, start.Add(15*time.Minute), w.ClosesAt)
	assert.Equal(t, StatusOpen, w.Status(start.Add(10*time.Minute)))
	assert.Equal(t, StatusClosed, w.Status(start.Add(16*time.Minute)))
}

func TestLegacyDeadlinePolicy(t *testing.T) {
	start := time.Date(2024, time.March, 4, 19, 0, 0, 0, time.UTC)
	w := LegacyDeadlinePolicy(2).Resolve(start)

	assert.True(t, w.NoOpenBound)
	assert.Equal(t, start.Add(-2*time.Hour), w.ClosesAt)
	// No lower bound: open arbitrarily far in advance.
	assert.Equal(t, StatusOpen, w.Status(start.AddDate(-1, 0, 0)))
	assert.Equal(t, StatusClosed, w.Status(start.Add(-time.Hour)))
}

func TestPolicyForSelectsVariant(t *testing.T) {
	show := &model.Show{
		SignupsOpen:            intp(2880),
		SignupsClosed:          intp(0),
		SignupWindowAfterHours: 2,
	}
	start := time.Date(2024, time.January, 15, 19, 30, 0, 0, time.UTC)

	w := PolicyFor(show).Resolve(start)
	assert.False(t, w.NoOpenBound)
	assert.Equal(t, start, w.ClosesAt)

	// Minute offsets unset: the legacy hours deadline applies.
	show.SignupsOpen = nil
	show.SignupsClosed = nil
	w = PolicyFor(show).Resolve(start)
	assert.True(t, w.NoOpenBound)
	assert.Equal(t, start.Add(-2*time.Hour), w.ClosesAt)
}

func TestStartAt(t *testing.T) {
	got, err := StartAt(date(2024, time.January, 15), "19:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 15, 19, 30, 0, 0, time.UTC), got)

	// Minute precision without seconds is accepted too.
	got, err = StartAt(date(2024, time.January, 15), "19:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 15, 19, 30, 0, 0, time.UTC), got)

	_, err = StartAt(date(2024, time.January, 15), "late")
	assert.Error(t, err)
}

func TestWindowForHonorsStartOverride(t *testing.T) {
	show := &model.Show{
		StartTime:     "19:30:00",
		SignupsOpen:   intp(60),
		SignupsClosed: intp(0),
	}
	inst := &model.ShowInstance{InstanceDate: date(2024, time.January, 15)}

	w, err := WindowFor(show, inst)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 15, 18, 30, 0, 0, time.UTC), w.OpensAt)

	override := "21:00:00"
	inst.StartTimeOverride = &override
	w, err = WindowFor(show, inst)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 15, 20, 0, 0, 0, time.UTC), w.OpensAt)
}
