package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openmicnights/openmic/internal/model"
)

// ShowRepo manages persistence for recurring show templates.
//
// DATE columns scan as time.Time (the pool is opened with
// parseTime=true, loc=UTC); TIME columns are carried as "HH:MM:SS"
// strings end to end.
type ShowRepo struct{ db *sql.DB }

func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB { return r.db }

const showColumns = `id, name, venue, address, description, timezone, day_of_week,
	start_time, end_time, repeat_cadence, custom_repeat_days, started_date, ended_date,
	is_deleted, max_signups, signups_open, signups_closed, signup_window_after_hours,
	owner_id, default_host_id, created_at, updated_at`

// Create inserts a new show and reads the row back so DB defaults and
// timestamps are populated on s.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	const q = `INSERT INTO shows
		(name, venue, address, description, timezone, day_of_week, start_time, end_time,
		 repeat_cadence, custom_repeat_days, started_date, max_signups,
		 signups_open, signups_closed, signup_window_after_hours, owner_id, default_host_id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		s.Name, s.Venue, s.Address, s.Description, s.Timezone, s.DayOfWeek,
		s.StartTime, nullStr(s.EndTime), string(s.RepeatCadence), nullInt(s.CustomRepeatDays),
		s.StartedDate.Format("2006-01-02"), s.MaxSignups,
		nullInt(s.SignupsOpen), nullInt(s.SignupsClosed), s.SignupWindowAfterHours,
		s.OwnerID, nullUint(s.DefaultHostID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID retrieves a show, ErrShowNotFound when missing.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	s, err := scanShow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListActive returns all shows still recurring, ordered by name.
func (r *ShowRepo) ListActive(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows
		WHERE is_deleted = 0 AND ended_date IS NULL
		ORDER BY name ASC`
	return r.list(ctx, q)
}

// ListManagedBy returns shows the user owns, runs or hosts, for the
// dashboard. Soft-deleted shows are excluded.
func (r *ShowRepo) ListManagedBy(ctx context.Context, userID uint64) ([]model.Show, error) {
	const q = `SELECT DISTINCT ` + showColumns + ` FROM shows s
		WHERE s.is_deleted = 0 AND s.ended_date IS NULL
		  AND (s.owner_id = ?
		       OR EXISTS (SELECT 1 FROM show_runners r WHERE r.show_id = s.id AND r.user_id = ?)
		       OR EXISTS (SELECT 1 FROM show_hosts h WHERE h.show_id = s.id AND h.user_id = ?))
		ORDER BY s.name ASC`
	return r.list(ctx, q, userID, userID, userID)
}

// Update writes the mutable settings of a show.
func (r *ShowRepo) Update(ctx context.Context, s *model.Show) error {
	const q = `UPDATE shows SET
		name=?, venue=?, address=?, description=?, timezone=?, day_of_week=?,
		start_time=?, end_time=?, repeat_cadence=?, custom_repeat_days=?,
		max_signups=?, signups_open=?, signups_closed=?, signup_window_after_hours=?,
		default_host_id=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, q,
		s.Name, s.Venue, s.Address, s.Description, s.Timezone, s.DayOfWeek,
		s.StartTime, nullStr(s.EndTime), string(s.RepeatCadence), nullInt(s.CustomRepeatDays),
		s.MaxSignups, nullInt(s.SignupsOpen), nullInt(s.SignupsClosed), s.SignupWindowAfterHours,
		nullUint(s.DefaultHostID), s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or identical values; distinguish for callers.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id=?`, s.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowNotFound
			}
			return err
		}
	}
	return nil
}

// SoftDelete marks the show ended as of endedOn. Instances and signups
// referencing the show are preserved; hard deletes are not supported.
func (r *ShowRepo) SoftDelete(ctx context.Context, id uint64, endedOn time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shows SET is_deleted=1, ended_date=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND is_deleted=0`,
		endedOn.Format("2006-01-02"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	return nil
}

// Undelete reverses a soft delete.
func (r *ShowRepo) Undelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shows SET is_deleted=0, ended_date=NULL, updated_at=CURRENT_TIMESTAMP WHERE id=? AND is_deleted=1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	return nil
}

func (r *ShowRepo) list(ctx context.Context, query string, args ...any) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// rowScanner lets scanShow work for both QueryRow and Rows.
type rowScanner interface{ Scan(dest ...any) error }

func scanShow(row rowScanner) (*model.Show, error) {
	var (
		s          model.Show
		endTime    sql.NullString
		cadence    string
		customDays sql.NullInt64
		endedDate  sql.NullTime
		openMin    sql.NullInt64
		closeMin   sql.NullInt64
		hostID     sql.NullInt64
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Venue, &s.Address, &s.Description, &s.Timezone, &s.DayOfWeek,
		&s.StartTime, &endTime, &cadence, &customDays, &s.StartedDate, &endedDate,
		&s.IsDeleted, &s.MaxSignups, &openMin, &closeMin, &s.SignupWindowAfterHours,
		&s.OwnerID, &hostID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.RepeatCadence = model.Cadence(cadence)
	if endTime.Valid {
		v := endTime.String
		s.EndTime = &v
	}
	if customDays.Valid {
		v := int(customDays.Int64)
		s.CustomRepeatDays = &v
	}
	if endedDate.Valid {
		v := endedDate.Time
		s.EndedDate = &v
	}
	if openMin.Valid {
		v := int(openMin.Int64)
		s.SignupsOpen = &v
	}
	if closeMin.Valid {
		v := int(closeMin.Int64)
		s.SignupsClosed = &v
	}
	if hostID.Valid {
		v := uint64(hostID.Int64)
		s.DefaultHostID = &v
	}
	return &s, nil
}

// nullStr / nullInt / nullUint adapt optional fields for SQL args.
func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullUint(p *uint64) any {
	if p == nil {
		return nil
	}
	return *p
}
