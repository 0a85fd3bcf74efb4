package model

import "time"

// User represents an application user record as stored in the `users`
// table. A user starts out as a plain comedian; creating a show makes
// them that show's owner, and other owners may grant them runner or
// host rights on individual shows. Per-show roles live in the
// show_runners / show_hosts join tables, not on the user row.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  Username      – unique short handle shown in lineups.
//  PasswordHash  – bcrypt hashed password.
//  FirstName     – given name.
//  LastName      – family name.
//  EmailVerified – whether the address has been confirmed.
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Email         string    // users.email
	Username      string    // users.username
	PasswordHash  string    // users.password_hash
	FirstName     string    // users.first_name
	LastName      string    // users.last_name
	EmailVerified bool      // users.email_verified
	IsActive      bool      // users.is_active
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// FullName returns the best available display name for the user,
// preferring "First Last" and degrading to whichever parts exist.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
