package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openmicnights/openmic/internal/model"
)

// InstanceRepo manages persistence for dated show instances. The
// UNIQUE(show_id, instance_date) key is the storage-level guarantee
// behind the one-instance-per-date invariant.
type InstanceRepo struct{ db *sql.DB }

func NewInstanceRepo(db *sql.DB) *InstanceRepo { return &InstanceRepo{db: db} }

const instanceColumns = `id, show_id, instance_date, is_cancelled, cancellation_reason,
	cancelled_at, max_signups_override, start_time_override, end_time_override, created_at`

const dateLayout = "2006-01-02"

// GetByID retrieves one instance, ErrInstanceNotFound when missing.
func (r *InstanceRepo) GetByID(ctx context.Context, id uint64) (*model.ShowInstance, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+instanceColumns+` FROM show_instances WHERE id = ?`, id)
	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return inst, nil
}

// ListUpcomingByShow returns instances of one show dated on or after
// from, soonest first.
func (r *InstanceRepo) ListUpcomingByShow(ctx context.Context, showID uint64, from time.Time, limit int) ([]model.ShowInstance, error) {
	const q = `SELECT ` + instanceColumns + ` FROM show_instances
		WHERE show_id = ? AND instance_date >= ?
		ORDER BY instance_date ASC
		LIMIT ?`
	return r.list(ctx, q, showID, from.Format(dateLayout), limit)
}

// ListByShowBetween returns one show's instances dated in [from, to],
// soonest first.
func (r *InstanceRepo) ListByShowBetween(ctx context.Context, showID uint64, from, to time.Time) ([]model.ShowInstance, error) {
	const q = `SELECT ` + instanceColumns + ` FROM show_instances
		WHERE show_id = ? AND instance_date BETWEEN ? AND ?
		ORDER BY instance_date ASC`
	return r.list(ctx, q, showID, from.Format(dateLayout), to.Format(dateLayout))
}

// ListBetween returns non-deleted shows' instances in [from, to],
// across all shows, for the calendar view.
func (r *InstanceRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.ShowInstance, error) {
	const q = `SELECT i.id, i.show_id, i.instance_date, i.is_cancelled, i.cancellation_reason,
			i.cancelled_at, i.max_signups_override, i.start_time_override, i.end_time_override, i.created_at
		FROM show_instances i
		JOIN shows s ON s.id = i.show_id
		WHERE s.is_deleted = 0 AND i.instance_date BETWEEN ? AND ?
		ORDER BY i.instance_date ASC`
	return r.list(ctx, q, from.Format(dateLayout), to.Format(dateLayout))
}

// ExistingDates returns the set of dates (as "YYYY-MM-DD") that
// already have an instance for the show within [from, to]. The
// materializer uses it to stay idempotent.
func (r *InstanceRepo) ExistingDates(ctx context.Context, showID uint64, from, to time.Time) (map[string]bool, error) {
	const q = `SELECT instance_date FROM show_instances WHERE show_id = ? AND instance_date BETWEEN ? AND ?`
	rows, err := r.db.QueryContext(ctx, q, showID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	existing := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		existing[d.Format(dateLayout)] = true
	}
	return existing, rows.Err()
}

// CreateBatch inserts one instance per date inside a single
// transaction, so a show never ends up with partial future coverage.
// It returns the created instances in date order.
func (r *InstanceRepo) CreateBatch(ctx context.Context, showID uint64, dates []time.Time) ([]model.ShowInstance, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created := make([]model.ShowInstance, 0, len(dates))
	for _, d := range dates {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			`INSERT INTO show_instances (show_id, instance_date) VALUES (?, ?)`,
			showID, d.Format(dateLayout))
		if err != nil {
			return nil, err
		}
		var id int64
		id, err = res.LastInsertId()
		if err != nil {
			return nil, err
		}
		created = append(created, model.ShowInstance{
			ID:           uint64(id),
			ShowID:       showID,
			InstanceDate: d,
		})
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel marks an instance cancelled with an optional reason. Already
// cancelled instances are left untouched.
func (r *InstanceRepo) Cancel(ctx context.Context, id uint64, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE show_instances SET is_cancelled=1, cancellation_reason=NULLIF(?,''), cancelled_at=?
		 WHERE id=? AND is_cancelled=0`,
		reason, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// Restore reverses a cancellation and clears the reason and timestamp.
func (r *InstanceRepo) Restore(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE show_instances SET is_cancelled=0, cancellation_reason=NULL, cancelled_at=NULL
		 WHERE id=? AND is_cancelled=1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// UpdateOverrides writes the per-instance overrides; nil pointers
// clear an override back to the show default.
func (r *InstanceRepo) UpdateOverrides(ctx context.Context, id uint64, maxSignups *int, startTime, endTime *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE show_instances SET max_signups_override=?, start_time_override=?, end_time_override=? WHERE id=?`,
		nullInt(maxSignups), nullStr(startTime), nullStr(endTime), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Identical values also affect zero rows; confirm existence.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM show_instances WHERE id=?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInstanceNotFound
			}
			return err
		}
	}
	return nil
}

// missingOrConflict distinguishes "row absent" from "row present but
// in the opposite cancellation state".
func (r *InstanceRepo) missingOrConflict(ctx context.Context, id uint64) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM show_instances WHERE id=?`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInstanceNotFound
		}
		return err
	}
	return ErrConflict
}

func (r *InstanceRepo) list(ctx context.Context, query string, args ...any) ([]model.ShowInstance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.ShowInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inst)
	}
	return result, rows.Err()
}

func scanInstance(row rowScanner) (*model.ShowInstance, error) {
	var (
		inst        model.ShowInstance
		reason      sql.NullString
		cancelledAt sql.NullTime
		maxOverride sql.NullInt64
		startOv     sql.NullString
		endOv       sql.NullString
	)
	err := row.Scan(
		&inst.ID, &inst.ShowID, &inst.InstanceDate, &inst.IsCancelled, &reason,
		&cancelledAt, &maxOverride, &startOv, &endOv, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		v := reason.String
		inst.CancellationReason = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		inst.CancelledAt = &v
	}
	if maxOverride.Valid {
		v := int(maxOverride.Int64)
		inst.MaxSignupsOverride = &v
	}
	if startOv.Valid {
		v := startOv.String
		inst.StartTimeOverride = &v
	}
	if endOv.Valid {
		v := endOv.String
		inst.EndTimeOverride = &v
	}
	return &inst, nil
}
