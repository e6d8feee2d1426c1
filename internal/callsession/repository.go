package callsession

import (
	"context"
	"time"
)

// Repository is the persistence contract for call sessions and transcripts.
//
// Every mutation is a single conditional write (compare-and-swap on status).
// Multiple API processes and scanner ticks run concurrently against the same
// store, so correctness must not depend on in-process locks; the bool returns
// report whether this caller's conditional write won.
type Repository interface {
	// Create inserts s as the active session for its door bell unless a
	// non-terminal session already exists. Returns the active session and
	// whether this call created it.
	Create(ctx context.Context, s Session) (Session, bool, error)

	// Latest returns the most recent session for the door bell by start
	// time, regardless of status. ok=false when no session was ever created.
	Latest(ctx context.Context, doorBellID string) (Session, bool, error)

	// Connect transitions the door bell's latest ringing session to
	// connected, stamping connected_at. ok=false when nothing is ringing.
	Connect(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error)

	// End transitions the door bell's connected session to ended.
	// ok=false when nothing is connected.
	End(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error)

	// RouteExpired atomically moves every ringing session started before
	// cutoff to routed and returns the sessions routed by THIS call.
	// buildingID narrows the sweep; empty means system-wide. Two concurrent
	// sweeps must never both claim the same session.
	RouteExpired(ctx context.Context, buildingID string, cutoff, at time.Time) ([]Session, error)

	// AppendMessage attaches m to the door bell's connected session,
	// assigning SessionID and Seq. ok=false when no session is connected.
	AppendMessage(ctx context.Context, doorBellID string, m Message) (Message, bool, error)

	// ConnectedMessages returns the connected session's transcript in
	// (created_at, seq) order. Empty when no session is connected.
	ConnectedMessages(ctx context.Context, doorBellID string) ([]Message, error)
}
