package callsession

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests.
// It mirrors the conditional-write semantics of the Postgres implementation
// under a single mutex, so the same race-safety properties hold.
//
// NOTE: This is not intended for production; state dies with the process.
type MemoryRepo struct {
	mu       sync.Mutex
	sessions []Session
	messages []Message
	seq      int64
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// latestIdx returns the index of the most recent session for the door bell,
// optionally restricted to one status. Later insertion wins timestamp ties.
func (r *MemoryRepo) latestIdx(doorBellID string, status Status) int {
	best := -1
	for i := range r.sessions {
		s := &r.sessions[i]
		if s.DoorBellID != doorBellID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		if best < 0 || !s.StartedAt.Before(r.sessions[best].StartedAt) {
			best = i
		}
	}
	return best
}

func (r *MemoryRepo) Create(ctx context.Context, s Session) (Session, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.sessions {
		e := &r.sessions[i]
		if e.DoorBellID == s.DoorBellID && !e.Status.Terminal() {
			return *e, false, nil
		}
	}

	s.Status = StatusRinging
	s.ConnectedAt = nil
	s.UpdatedAt = s.StartedAt
	r.sessions = append(r.sessions, s)
	return s, true, nil
}

func (r *MemoryRepo) Latest(ctx context.Context, doorBellID string) (Session, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.latestIdx(doorBellID, "")
	if i < 0 {
		return Session{}, false, nil
	}
	return r.sessions[i], true, nil
}

func (r *MemoryRepo) Connect(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.latestIdx(doorBellID, StatusRinging)
	if i < 0 {
		return Session{}, false, nil
	}
	s := &r.sessions[i]
	t := at
	s.Status = StatusConnected
	s.ConnectedAt = &t
	s.UpdatedAt = at
	return *s, true, nil
}

func (r *MemoryRepo) End(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.latestIdx(doorBellID, StatusConnected)
	if i < 0 {
		return Session{}, false, nil
	}
	s := &r.sessions[i]
	s.Status = StatusEnded
	s.UpdatedAt = at
	return *s, true, nil
}

func (r *MemoryRepo) RouteExpired(ctx context.Context, buildingID string, cutoff, at time.Time) ([]Session, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var routed []Session
	for i := range r.sessions {
		s := &r.sessions[i]
		if s.Status != StatusRinging {
			continue
		}
		if !s.StartedAt.Before(cutoff) {
			continue
		}
		if buildingID != "" && s.BuildingID != buildingID {
			continue
		}
		s.Status = StatusRouted
		s.UpdatedAt = at
		routed = append(routed, *s)
	}
	return routed, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, doorBellID string, m Message) (Message, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.latestIdx(doorBellID, StatusConnected)
	if i < 0 {
		return Message{}, false, nil
	}
	r.seq++
	m.SessionID = r.sessions[i].ID
	m.Seq = r.seq
	r.messages = append(r.messages, m)
	return m, true, nil
}

func (r *MemoryRepo) ConnectedMessages(ctx context.Context, doorBellID string) ([]Message, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.latestIdx(doorBellID, StatusConnected)
	if i < 0 {
		return nil, nil
	}
	sessionID := r.sessions[i].ID

	// messages are appended in seq order already
	var out []Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}
