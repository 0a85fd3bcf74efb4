package model

import "time"

// ShowRunner grants a user runner rights on a show: everything an
// owner can do except transfer or delete the show itself.
type ShowRunner struct {
	ID        uint64    // show_runners.id
	ShowID    uint64    // show_runners.show_id
	UserID    uint64    // show_runners.user_id
	AddedByID uint64    // show_runners.added_by_id
	AddedAt   time.Time // show_runners.added_at
}

// ShowHost grants a user host rights on every instance of a show.
type ShowHost struct {
	ID        uint64    // show_hosts.id
	ShowID    uint64    // show_hosts.show_id
	UserID    uint64    // show_hosts.user_id
	AddedByID uint64    // show_hosts.added_by_id
	AddedAt   time.Time // show_hosts.added_at
}

// RoleSet is the raw answer to "which join rows exist for this user on
// this show"; the resolver in the service layer turns it into a single
// highest-privilege role.
type RoleSet struct {
	IsRunner bool
	IsHost   bool
}

// ShowInstanceHost grants host rights on one specific instance only.
type ShowInstanceHost struct {
	ID             uint64    // show_instance_hosts.id
	ShowInstanceID uint64    // show_instance_hosts.show_instance_id
	UserID         uint64    // show_instance_hosts.user_id
	AddedAt        time.Time // show_instance_hosts.added_at
}
