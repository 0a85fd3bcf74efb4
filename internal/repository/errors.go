// Package repository contains the data access layer: one repo per
// aggregate over a shared *sql.DB, raw SQL statements, and sentinel
// errors that handlers translate into HTTP responses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they have no rights to. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as granting a role the user already holds.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrShowNotFound indicates the show does not exist.
var ErrShowNotFound = errors.New("show not found")

// ErrInstanceNotFound indicates the show instance does not exist.
var ErrInstanceNotFound = errors.New("show instance not found")

// ErrSignupNotFound indicates the signup does not exist.
var ErrSignupNotFound = errors.New("signup not found")

// ErrDuplicateSignup is returned when a registered performer already
// holds a slot in the instance. This is how a signup race resolves:
// the second writer hits the unique key and gets this error.
var ErrDuplicateSignup = errors.New("already signed up")

// ErrEmailExists / ErrUsernameExists report registration conflicts.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)
