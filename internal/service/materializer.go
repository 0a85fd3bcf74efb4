package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/schedule"
)

// DefaultHorizonDays is how far ahead instances are materialized when
// the caller does not say otherwise.
const DefaultHorizonDays = 90

// maxInstancesPerRun bounds one materialization pass so a degenerate
// cadence (custom every day) cannot write unbounded rows. Re-running
// is idempotent, so the cap only delays coverage, never loses it.
const maxInstancesPerRun = 20

// InstanceStore is the slice of the instance repository the
// materializer needs. CreateBatch must be atomic: either every date is
// inserted or none, so a show never gets partial future coverage.
type InstanceStore interface {
	ExistingDates(ctx context.Context, showID uint64, from, to time.Time) (map[string]bool, error)
	CreateBatch(ctx context.Context, showID uint64, dates []time.Time) ([]model.ShowInstance, error)
}

// ShowSource lists the shows eligible for materialization.
type ShowSource interface {
	ListActive(ctx context.Context) ([]model.Show, error)
}

// Materializer walks the recurrence rule forward and persists missing
// ShowInstance rows. It is invoked synchronously at show create/update
// and re-run nightly; both paths are safe to repeat.
type Materializer struct {
	Shows     ShowSource
	Instances InstanceStore
	Log       *zap.SugaredLogger
}

func NewMaterializer(shows ShowSource, instances InstanceStore, log *zap.SugaredLogger) *Materializer {
	return &Materializer{Shows: shows, Instances: instances, Log: log}
}

// Materialize creates the missing instances for one show over the
// horizon, starting from the later of today and the show's anchor
// date. Existing instances are left untouched, including their
// cancellation state. It returns only the newly created instances.
func (m *Materializer) Materialize(ctx context.Context, show *model.Show, horizonDays int, now time.Time) ([]model.ShowInstance, error) {
	if !show.IsActive() {
		return nil, nil
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	start := schedule.DateOf(now)
	if anchor := schedule.DateOf(show.StartedDate); anchor.After(start) {
		start = anchor
	}
	end := start.AddDate(0, 0, horizonDays)

	var dates []time.Time
	cur := start
	for len(dates) < maxInstancesPerRun {
		next, ok, err := schedule.NextOccurrence(show, cur)
		if err != nil {
			return nil, err
		}
		if !ok || next.After(end) {
			// Exhausted recurrence or horizon reached.
			break
		}
		dates = append(dates, next)
		cur = next.AddDate(0, 0, 1)
	}
	if len(dates) == 0 {
		return nil, nil
	}

	existing, err := m.Instances.ExistingDates(ctx, show.ID, start, end)
	if err != nil {
		return nil, err
	}
	missing := dates[:0]
	for _, d := range dates {
		if !existing[d.Format("2006-01-02")] {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	created, err := m.Instances.CreateBatch(ctx, show.ID, missing)
	if err != nil {
		return nil, err
	}
	if m.Log != nil {
		m.Log.Infow("materialized instances",
			"show_id", show.ID, "created", len(created), "horizon_days", horizonDays)
	}
	return created, nil
}

// MaterializeAll re-runs materialization for every active show. Errors
// on individual shows are logged and skipped so one misconfigured show
// cannot starve the rest; the first listing error aborts.
func (m *Materializer) MaterializeAll(ctx context.Context, horizonDays int, now time.Time) (int, error) {
	shows, err := m.Shows.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range shows {
		created, err := m.Materialize(ctx, &shows[i], horizonDays, now)
		if err != nil {
			if m.Log != nil {
				m.Log.Errorw("materialization failed", "show_id", shows[i].ID, "err", err)
			}
			continue
		}
		total += len(created)
	}
	return total, nil
}
