package audit

import "time"

// Event is an immutable, append-only call-history record.
//
// Invariants:
// - Events are never updated or deleted.
// - building_id is required for tenancy isolation.
// - Writes are best-effort; do not block call transitions on audit failures.
//
// Storage recommendation (Postgres):
// - Table call_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID         string `json:"id" db:"id"`
	BuildingID string `json:"building_id" db:"building_id"`

	// Type indicates the business category of the record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event, when there is
	// one. Scanner-routed escalations have no actor.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	// Target identifiers.
	DoorBellID  string `json:"door_bell_id,omitempty" db:"door_bell_id"`
	SessionID   string `json:"session_id,omitempty" db:"session_id"`
	HouseholdID string `json:"household_id,omitempty" db:"household_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallAnswered EventType = "call_answered"
	EventTypeCallEnded    EventType = "call_ended"
	EventTypeCallRouted   EventType = "call_routed"
)
