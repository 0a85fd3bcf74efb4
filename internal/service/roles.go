// Package service holds the domain workflows between the HTTP layer
// and the repositories: role resolution, instance materialization and
// the signup gate.
package service

import (
	"context"
	"errors"

	"github.com/openmicnights/openmic/internal/model"
)

// ErrNotAuthorized is returned when the caller's resolved role does
// not permit the operation. Handlers translate this into 403.
var ErrNotAuthorized = errors.New("not authorized for this operation")

// Role is a user's effective role on a show, highest privilege first.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleRunner   Role = "runner"
	RoleHost     Role = "host"
	RoleComedian Role = "comedian"
)

// CanEditShow reports whether the role may change show settings,
// manage runners/hosts, or soft-delete the show.
func (r Role) CanEditShow() bool { return r == RoleOwner || r == RoleRunner }

// CanManageLineup reports whether the role may order the lineup,
// add walk-ins, remove signups, or cancel/restore instances.
func (r Role) CanManageLineup() bool { return r != RoleComedian }

// RoleSource abstracts the role-assignment storage so the resolver can
// be exercised against an in-memory implementation in tests.
// repository.RoleRepo is the production implementation.
type RoleSource interface {
	RolesFor(ctx context.Context, userID, showID uint64) (model.RoleSet, error)
	IsInstanceHost(ctx context.Context, userID, instanceID uint64) (bool, error)
}

// RoleResolver classifies users against shows. It holds no state and
// never mutates anything.
type RoleResolver struct {
	Source RoleSource
}

func NewRoleResolver(src RoleSource) *RoleResolver { return &RoleResolver{Source: src} }

// RoleForShow resolves the user's role on a show. Checks run in
// priority order and the first match wins, so a user who is both owner
// and runner resolves to owner.
func (r *RoleResolver) RoleForShow(ctx context.Context, userID uint64, show *model.Show) (Role, error) {
	if show.OwnerID == userID {
		return RoleOwner, nil
	}
	set, err := r.Source.RolesFor(ctx, userID, show.ID)
	if err != nil {
		return RoleComedian, err
	}
	switch {
	case set.IsRunner:
		return RoleRunner, nil
	case set.IsHost:
		return RoleHost, nil
	default:
		return RoleComedian, nil
	}
}

// RoleForInstance is RoleForShow plus the per-instance host grant: a
// user assigned as host of this one instance resolves to host here
// even though they are a plain comedian on the show at large.
func (r *RoleResolver) RoleForInstance(ctx context.Context, userID uint64, show *model.Show, instanceID uint64) (Role, error) {
	role, err := r.RoleForShow(ctx, userID, show)
	if err != nil || role != RoleComedian {
		return role, err
	}
	hosting, err := r.Source.IsInstanceHost(ctx, userID, instanceID)
	if err != nil {
		return RoleComedian, err
	}
	if hosting {
		return RoleHost, nil
	}
	return RoleComedian, nil
}
