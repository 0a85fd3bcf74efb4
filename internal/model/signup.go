package model

import "time"

// performerKind tags the two variants of Performer.
type performerKind uint8

const (
	performerRegistered performerKind = iota + 1
	performerWalkin
)

// Performer identifies who holds a lineup slot: either a registered
// user or a walk-in the host added by name. The two cases are kept as
// a closed variant so callers must handle both; the nullable
// comedian_id column only appears at the repository boundary.
type Performer struct {
	kind   performerKind
	userID uint64
	name   string
}

// RegisteredPerformer returns the variant backed by a user account.
func RegisteredPerformer(userID uint64) Performer {
	return Performer{kind: performerRegistered, userID: userID}
}

// WalkinPerformer returns the variant for a host-added walk-in with no
// account, identified only by a display name.
func WalkinPerformer(name string) Performer {
	return Performer{kind: performerWalkin, name: name}
}

// Registered reports the backing user ID when the performer has an
// account.
func (p Performer) Registered() (uint64, bool) {
	return p.userID, p.kind == performerRegistered
}

// Walkin reports the display name when the performer is a walk-in.
func (p Performer) Walkin() (string, bool) {
	return p.name, p.kind == performerWalkin
}

// DisplayName resolves a human-readable name; registered performers
// are resolved by the caller, so this returns the walk-in name or "".
func (p Performer) DisplayName() string {
	if p.kind == performerWalkin {
		return p.name
	}
	return ""
}

// Signup is a performer's claim on a slot in one ShowInstance.
//
// At most one signup may exist per (registered performer, instance);
// walk-ins are exempt from that uniqueness. Position is nil until a
// lineup manager assigns an order.
type Signup struct {
	ID             uint64    // signups.id
	Performer      Performer // signups.comedian_id / signups.walkin_name
	ShowInstanceID uint64    // signups.show_instance_id
	SignupTime     time.Time // signups.signup_time
	Position       *int      // signups.position (nullable)
	IsPresent      bool      // signups.is_present
	Performed      bool      // signups.performed
	Notes          string    // signups.notes
}
