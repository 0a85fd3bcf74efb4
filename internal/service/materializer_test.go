package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
)

// fakeInstanceStore keeps created dates in memory, keyed the way the
// repository keys them.
type fakeInstanceStore struct {
	dates  map[uint64]map[string]bool
	nextID uint64
}

func newFakeInstanceStore() *fakeInstanceStore {
	return &fakeInstanceStore{dates: map[uint64]map[string]bool{}}
}

func (f *fakeInstanceStore) ExistingDates(_ context.Context, showID uint64, _, _ time.Time) (map[string]bool, error) {
	out := map[string]bool{}
	for d := range f.dates[showID] {
		out[d] = true
	}
	return out, nil
}

func (f *fakeInstanceStore) CreateBatch(_ context.Context, showID uint64, dates []time.Time) ([]model.ShowInstance, error) {
	if f.dates[showID] == nil {
		f.dates[showID] = map[string]bool{}
	}
	created := make([]model.ShowInstance, 0, len(dates))
	for _, d := range dates {
		f.nextID++
		f.dates[showID][d.Format("2006-01-02")] = true
		created = append(created, model.ShowInstance{ID: f.nextID, ShowID: showID, InstanceDate: d})
	}
	return created, nil
}

type fakeShowSource struct{ shows []model.Show }

func (f *fakeShowSource) ListActive(context.Context) ([]model.Show, error) {
	return f.shows, nil
}

func intp(v int) *int { return &v }

func weeklyShow(id uint64) *model.Show {
	return &model.Show{
		ID:            id,
		Name:          "Monday Mic",
		DayOfWeek:     "Monday",
		RepeatCadence: model.CadenceWeekly,
		StartedDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxSignups:    20,
	}
}

func TestMaterializeWeeklyHorizon(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) // a Monday

	created, err := m.Materialize(context.Background(), weeklyShow(1), 90, now)
	require.NoError(t, err)

	// 90 days from Jan 1 holds 13 Mondays (Jan 1 .. Mar 25).
	assert.Len(t, created, 13)
	assert.Equal(t, "2024-01-01", created[0].InstanceDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-25", created[12].InstanceDate.Format("2006-01-02"))
}

func TestMaterializeIdempotent(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	show := weeklyShow(1)

	first, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	assert.Empty(t, second, "second run must create nothing")
}

func TestMaterializeFillsGapsOnly(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	show := weeklyShow(1)

	// Pre-seed two of the Mondays.
	_, err := store.CreateBatch(context.Background(), 1, []time.Time{
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	created, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	assert.Len(t, created, 11)
	for _, inst := range created {
		d := inst.InstanceDate.Format("2006-01-02")
		assert.NotEqual(t, "2024-01-08", d)
		assert.NotEqual(t, "2024-01-22", d)
	}
}

func TestMaterializeCapsPerRun(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	show := weeklyShow(1)
	show.RepeatCadence = model.CadenceCustom
	show.CustomRepeatDays = intp(1) // every day

	created, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	assert.Len(t, created, maxInstancesPerRun)
}

func TestMaterializeSkipsInactiveShow(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	show := weeklyShow(1)
	show.SoftDelete(now)

	created, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMaterializeStartsAtAnchor(t *testing.T) {
	store := newFakeInstanceStore()
	m := NewMaterializer(nil, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	show := weeklyShow(1)
	show.StartedDate = time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC) // future Monday

	created, err := m.Materialize(context.Background(), show, 90, now)
	require.NoError(t, err)
	require.NotEmpty(t, created)
	assert.Equal(t, "2024-02-05", created[0].InstanceDate.Format("2006-01-02"))
}

func TestMaterializeAllSkipsBrokenShow(t *testing.T) {
	store := newFakeInstanceStore()
	good := *weeklyShow(1)
	broken := *weeklyShow(2)
	broken.RepeatCadence = model.CadenceCustom // custom without repeat days
	src := &fakeShowSource{shows: []model.Show{broken, good}}

	m := NewMaterializer(src, store, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	total, err := m.MaterializeAll(context.Background(), 90, now)
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	assert.Empty(t, store.dates[2])
}
