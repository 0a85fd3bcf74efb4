package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/utils"
)

// UserRepo manages persistence for users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, username, password_hash, first_name, last_name, email_verified, is_active, created_at, updated_at"

// Create inserts a user with a bcrypt-hashed password and returns the
// new ID. Email and username collisions map to their sentinel errors.
func (r *UserRepo) Create(ctx context.Context, email, username, password, firstName, lastName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, first_name, last_name) VALUES (?,?,?,?,?)",
		email, username, hash, firstName, lastName)
	if err != nil {
		// MySQL duplicate-key; the message names the violated index.
		if strings.Contains(err.Error(), "1062") {
			if strings.Contains(strings.ToLower(err.Error()), "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByUsername fetches a user by exact username; used when a host
// types a name while adding someone to a lineup.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// MarkEmailVerified flips the verification flag.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET email_verified=1 WHERE id=?", id)
	return err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.EmailVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
