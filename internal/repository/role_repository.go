package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/openmicnights/openmic/internal/model"
)

// RoleRepo manages the role-assignment join tables (show_runners,
// show_hosts, show_instance_hosts) and answers the read queries the
// permission resolver needs.
type RoleRepo struct{ db *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// RolesFor returns which role rows exist for the user on the show.
// Ownership is not part of the answer; the resolver reads owner_id off
// the show itself.
func (r *RoleRepo) RolesFor(ctx context.Context, userID, showID uint64) (model.RoleSet, error) {
	var set model.RoleSet
	const q = `SELECT
		EXISTS (SELECT 1 FROM show_runners WHERE show_id=? AND user_id=?),
		EXISTS (SELECT 1 FROM show_hosts   WHERE show_id=? AND user_id=?)`
	err := r.db.QueryRowContext(ctx, q, showID, userID, showID, userID).
		Scan(&set.IsRunner, &set.IsHost)
	return set, err
}

// IsInstanceHost reports whether the user hosts this one instance.
func (r *RoleRepo) IsInstanceHost(ctx context.Context, userID, instanceID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM show_instance_hosts WHERE show_instance_id=? AND user_id=? LIMIT 1`,
		instanceID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// AddRunner grants runner rights; duplicates map to ErrConflict.
func (r *RoleRepo) AddRunner(ctx context.Context, showID, userID, addedByID uint64) error {
	return r.addRole(ctx, "show_runners", showID, userID, addedByID)
}

// RemoveRunner revokes runner rights.
func (r *RoleRepo) RemoveRunner(ctx context.Context, showID, userID uint64) error {
	return r.removeRole(ctx, "show_runners", showID, userID)
}

// AddHost grants host rights on every instance of the show.
func (r *RoleRepo) AddHost(ctx context.Context, showID, userID, addedByID uint64) error {
	return r.addRole(ctx, "show_hosts", showID, userID, addedByID)
}

// RemoveHost revokes show-wide host rights.
func (r *RoleRepo) RemoveHost(ctx context.Context, showID, userID uint64) error {
	return r.removeRole(ctx, "show_hosts", showID, userID)
}

// SetInstanceHost replaces the host assignment for one instance.
func (r *RoleRepo) SetInstanceHost(ctx context.Context, instanceID, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM show_instance_hosts WHERE show_instance_id=?`, instanceID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO show_instance_hosts (show_instance_id, user_id) VALUES (?,?)`,
		instanceID, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// InstanceHostNames returns the display names of the instance's
// assigned hosts, in assignment order.
func (r *RoleRepo) InstanceHostNames(ctx context.Context, instanceID uint64) ([]string, error) {
	const q = `SELECT u.first_name, u.last_name, u.username, u.email
		FROM show_instance_hosts h
		JOIN users u ON u.id = h.user_id
		WHERE h.show_instance_id = ?
		ORDER BY h.added_at ASC`
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.FirstName, &u.LastName, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		names = append(names, u.FullName())
	}
	return names, rows.Err()
}

func (r *RoleRepo) addRole(ctx context.Context, table string, showID, userID, addedByID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (show_id, user_id, added_by_id) VALUES (?,?,?)`,
		showID, userID, addedByID)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrConflict
	}
	return err
}

func (r *RoleRepo) removeRole(ctx context.Context, table string, showID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE show_id=? AND user_id=?`, showID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
