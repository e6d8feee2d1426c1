package callsession

import "time"

// Session represents one ring-to-resolution episode at a door bell.
//
// Lifecycle invariants:
//   - At most one session per door bell may be non-terminal at any instant.
//     The store closes the press/press race with a partial unique index on
//     (door_bell_id) for non-terminal rows; see repo_postgres.go.
//   - Transitions are monotonic: ringing -> connected -> ended, or
//     ringing -> routed. Nothing moves backward.
//   - ConnectedAt is non-nil iff the session has ever been connected.
//   - Sessions are never deleted; terminal rows stay for call history.
//
// A ring that times out is persisted directly as routed. The "timed out"
// intermediate is a label for intent only; no reader observes it separately.
type Session struct {
	ID          string `json:"call_session_id" db:"id"`
	DoorBellID  string `json:"door_bell_id" db:"door_bell_id"`
	BuildingID  string `json:"building_id" db:"building_id"`
	HouseholdID string `json:"household_id" db:"household_id"`

	Status Status `json:"status" db:"status"`

	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	ConnectedAt *time.Time `json:"connected_at,omitempty" db:"connected_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusRinging   Status = "ringing"
	StatusConnected Status = "connected"
	StatusRouted    Status = "routed" // ring deadline elapsed, escalated to front desk
	StatusEnded     Status = "ended"
)

// Terminal reports whether the session can never transition again.
func (s Status) Terminal() bool {
	return s == StatusRouted || s == StatusEnded
}

// CanTransition reports whether next is a legal successor of s.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusRinging:
		return next == StatusConnected || next == StatusRouted
	case StatusConnected:
		return next == StatusEnded
	default:
		return false
	}
}

// Collapse maps the internal status set onto the public three-state view.
// Polling clients see ringing, connected or ended; the routed distinction is
// escalation bookkeeping and stays internal.
func (s Status) Collapse() Status {
	if s == StatusRinging || s == StatusConnected {
		return s
	}
	return StatusEnded
}

// Origin tags who wrote a message. It is an enum, never free text.
type Origin string

const (
	OriginGuest     Origin = "guest"
	OriginHousehold Origin = "household"
)

func (o Origin) Valid() bool {
	return o == OriginGuest || o == OriginHousehold
}

// Message is a transcript entry on a connected session.
//
// Messages may only be created while the parent session is exactly connected,
// are immutable once written, and are ordered by (created_at, seq). Seq is
// assigned by the store and breaks timestamp ties stably.
type Message struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"call_session_id" db:"session_id"`
	From      Origin    `json:"from" db:"origin"`
	Body      string    `json:"text" db:"body"`
	Seq       int64     `json:"-" db:"seq"`
	CreatedAt time.Time `json:"timestamp" db:"created_at"`
}
