package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/openmicnights/openmic/internal/model"
)

// SignupRepo manages lineup signups. The UNIQUE(comedian_id,
// show_instance_id) key only binds registered performers; walk-ins
// carry a NULL comedian_id and may repeat.
type SignupRepo struct{ db *sql.DB }

func NewSignupRepo(db *sql.DB) *SignupRepo { return &SignupRepo{db: db} }

// LineupEntry is a signup joined with its performer's display name,
// ready for lineup rendering.
type LineupEntry struct {
	Signup      model.Signup
	DisplayName string
}

// Create inserts a signup. A registered performer hitting the unique
// key gets ErrDuplicateSignup; that is also how concurrent double
// submissions are serialized.
func (r *SignupRepo) Create(ctx context.Context, s *model.Signup) error {
	var comedianID any
	var walkinName any
	if id, ok := s.Performer.Registered(); ok {
		comedianID = id
	}
	if name, ok := s.Performer.Walkin(); ok {
		walkinName = name
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO signups (comedian_id, walkin_name, show_instance_id, signup_time, notes)
		 VALUES (?,?,?,?,?)`,
		comedianID, walkinName, s.ShowInstanceID, s.SignupTime, s.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateSignup
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches one signup.
func (r *SignupRepo) GetByID(ctx context.Context, id uint64) (*model.Signup, error) {
	const q = `SELECT id, comedian_id, walkin_name, show_instance_id, signup_time,
			position, is_present, performed, notes
		FROM signups WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	s, err := scanSignup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}
	return s, nil
}

// Delete removes a signup (cancellation).
func (r *SignupRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM signups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSignupNotFound
	}
	return nil
}

// CountForInstance returns the current signup count, compared against
// the effective capacity during signup.
func (r *SignupRepo) CountForInstance(ctx context.Context, instanceID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signups WHERE show_instance_id = ?`, instanceID).Scan(&n)
	return n, err
}

// ExistsFor reports whether a registered user already holds a slot.
func (r *SignupRepo) ExistsFor(ctx context.Context, userID, instanceID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM signups WHERE comedian_id = ? AND show_instance_id = ? LIMIT 1`,
		userID, instanceID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListByInstance returns the lineup in running order: assigned
// positions first, then unpositioned entries by signup time.
func (r *SignupRepo) ListByInstance(ctx context.Context, instanceID uint64) ([]LineupEntry, error) {
	const q = `SELECT s.id, s.comedian_id, s.walkin_name, s.show_instance_id, s.signup_time,
			s.position, s.is_present, s.performed, s.notes,
			u.first_name, u.last_name, u.username, u.email
		FROM signups s
		LEFT JOIN users u ON u.id = s.comedian_id
		WHERE s.show_instance_id = ?
		ORDER BY s.position IS NULL, s.position ASC, s.signup_time ASC`
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lineup []LineupEntry
	for rows.Next() {
		var (
			s          model.Signup
			comedianID sql.NullInt64
			walkin     sql.NullString
			position   sql.NullInt64
			first      sql.NullString
			last       sql.NullString
			username   sql.NullString
			email      sql.NullString
		)
		if err := rows.Scan(&s.ID, &comedianID, &walkin, &s.ShowInstanceID, &s.SignupTime,
			&position, &s.IsPresent, &s.Performed, &s.Notes,
			&first, &last, &username, &email); err != nil {
			return nil, err
		}
		if position.Valid {
			p := int(position.Int64)
			s.Position = &p
		}
		entry := LineupEntry{}
		if comedianID.Valid {
			s.Performer = model.RegisteredPerformer(uint64(comedianID.Int64))
			entry.DisplayName = model.User{
				FirstName: first.String, LastName: last.String,
				Username: username.String, Email: email.String,
			}.FullName()
		} else {
			s.Performer = model.WalkinPerformer(walkin.String)
			entry.DisplayName = walkin.String
		}
		entry.Signup = s
		lineup = append(lineup, entry)
	}
	return lineup, rows.Err()
}

// ReorderPositions assigns positions 1..n following the given signup
// order, inside one transaction. IDs not belonging to the instance are
// ignored rather than failing the whole reorder.
func (r *SignupRepo) ReorderPositions(ctx context.Context, instanceID uint64, orderedIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i, id := range orderedIDs {
		if _, err = tx.ExecContext(ctx,
			`UPDATE signups SET position = ? WHERE id = ? AND show_instance_id = ?`,
			i+1, id, instanceID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateFlags writes the lineup bookkeeping fields; nil pointers leave
// a field unchanged.
func (r *SignupRepo) UpdateFlags(ctx context.Context, id uint64, isPresent, performed *bool, notes *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE signups SET
			is_present = COALESCE(?, is_present),
			performed  = COALESCE(?, performed),
			notes      = COALESCE(?, notes)
		 WHERE id = ?`,
		nullBool(isPresent), nullBool(performed), nullStr(notes), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM signups WHERE id=?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSignupNotFound
			}
			return err
		}
	}
	return nil
}

// ListUpcomingByUser returns a user's signups for instances dated on
// or after from, soonest first.
func (r *SignupRepo) ListUpcomingByUser(ctx context.Context, userID uint64, from time.Time) ([]model.Signup, error) {
	const q = `SELECT s.id, s.comedian_id, s.walkin_name, s.show_instance_id, s.signup_time,
			s.position, s.is_present, s.performed, s.notes
		FROM signups s
		JOIN show_instances i ON i.id = s.show_instance_id
		WHERE s.comedian_id = ? AND i.instance_date >= ?
		ORDER BY i.instance_date ASC`
	rows, err := r.db.QueryContext(ctx, q, userID, from.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Signup
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSignup(row rowScanner) (*model.Signup, error) {
	var (
		s          model.Signup
		comedianID sql.NullInt64
		walkin     sql.NullString
		position   sql.NullInt64
	)
	err := row.Scan(&s.ID, &comedianID, &walkin, &s.ShowInstanceID, &s.SignupTime,
		&position, &s.IsPresent, &s.Performed, &s.Notes)
	if err != nil {
		return nil, err
	}
	if comedianID.Valid {
		s.Performer = model.RegisteredPerformer(uint64(comedianID.Int64))
	} else {
		s.Performer = model.WalkinPerformer(walkin.String)
	}
	if position.Valid {
		p := int(position.Int64)
		s.Position = &p
	}
	return &s, nil
}

func nullBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
