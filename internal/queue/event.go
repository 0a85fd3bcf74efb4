// Package queue defines the message payloads exchanged over the broker,
// the publisher, and the background consumer that records signups.
package queue

// Durable queue names. Routing uses the default exchange, so the
// routing key equals the queue name.
const (
	SignupQueueName = "signup.confirmed"
	CancelQueueName = "instance.cancelled"
)

// SignupConfirmedEvent is published when a signup is successfully created.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type SignupConfirmedEvent struct {
	SignupID      uint64 `json:"signup_id"`
	ShowID        uint64 `json:"show_id"`
	ShowName      string `json:"show_name"`
	Venue         string `json:"venue"`
	InstanceID    uint64 `json:"instance_id"`
	InstanceDate  string `json:"instance_date"`
	PerformerName string `json:"performer_name"`
	Walkin        bool   `json:"walkin"`
	SignupCount   int    `json:"signup_count"`
	MaxSignups    int    `json:"max_signups"`
	SignedUpAt    string `json:"signed_up_at"`
}

// InstanceCancelledEvent is published when a show instance is cancelled,
// so performers already on the lineup can be notified out of band.
type InstanceCancelledEvent struct {
	InstanceID   uint64 `json:"instance_id"`
	ShowID       uint64 `json:"show_id"`
	ShowName     string `json:"show_name"`
	InstanceDate string `json:"instance_date"`
	Reason       string `json:"reason,omitempty"`
	Performers   int    `json:"performers"`
	CancelledAt  string `json:"cancelled_at"`
}
