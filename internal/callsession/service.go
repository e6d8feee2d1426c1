package callsession

import (
	"context"
	"errors"
	"strings"
	"time"

	"intercom-platform/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument = errors.New("call session: invalid argument")
	ErrNoActiveSession = errors.New("call session: no active session")
)

// Dispatcher pushes call lifecycle events to interested parties (household
// apps, front desk). Delivery is fire-and-forget: the service logs failures
// and never rolls a state transition back because a notification failed.
type Dispatcher interface {
	CallRinging(ctx context.Context, s Session) error
	CallAnswered(ctx context.Context, s Session) error
	CallEnded(ctx context.Context, s Session) error
	CallRouted(ctx context.Context, s Session) error
}

// Recorder persists call history events. Best-effort, same policy as
// Dispatcher.
type Recorder interface {
	RecordAnswered(ctx context.Context, s Session, actorUserID string) error
	RecordEnded(ctx context.Context, s Session, actorUserID string) error
	RecordRouted(ctx context.Context, s Session) error
}

// Service owns the call-session state machine.
//
// Coordination model: there is no in-process session actor. Every operation
// is an independent conditional write against the shared store, so many API
// processes and scanner ticks can run concurrently. The store's status
// guards decide races (e.g., an answer landing as the scanner routes the
// same ring: exactly one wins).
type Service struct {
	repo     Repository
	dispatch Dispatcher
	record   Recorder

	// ringTimeout is the policy age after which an unanswered ring escalates.
	ringTimeout time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, dispatch Dispatcher, record Recorder, ringTimeout time.Duration) *Service {
	return &Service{
		repo:        repo,
		dispatch:    dispatch,
		record:      record,
		ringTimeout: ringTimeout,
		clock:       time.Now,
	}
}

// PressInput identifies the door bell being rung. The caller (handler layer)
// resolves it from the directory, so unknown door bells 404 before reaching
// here.
type PressInput struct {
	DoorBellID  string
	BuildingID  string
	HouseholdID string
}

// Press starts a new call session, unless one is already active for the door
// bell, in which case the active session is returned unchanged. The bool
// reports whether this press created the session.
func (s *Service) Press(ctx context.Context, in PressInput) (Session, bool, error) {
	if in.DoorBellID == "" || in.BuildingID == "" || in.HouseholdID == "" {
		return Session{}, false, ErrInvalidArgument
	}

	now := s.clock().UTC()
	sess := Session{
		ID:          uuid.NewString(),
		DoorBellID:  in.DoorBellID,
		BuildingID:  in.BuildingID,
		HouseholdID: in.HouseholdID,
		Status:      StatusRinging,
		StartedAt:   now,
		UpdatedAt:   now,
	}

	sess, created, err := s.repo.Create(ctx, sess)
	if err != nil {
		return Session{}, false, err
	}
	if created {
		s.notify(ctx, "ringing", sess, func() error { return s.dispatch.CallRinging(ctx, sess) })
	}
	return sess, created, nil
}

// Answer moves the door bell's ringing session to connected.
func (s *Service) Answer(ctx context.Context, doorBellID, actorUserID string) (Session, error) {
	if doorBellID == "" {
		return Session{}, ErrInvalidArgument
	}

	sess, ok, err := s.repo.Connect(ctx, doorBellID, s.clock().UTC())
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}

	s.notify(ctx, "answered", sess, func() error { return s.dispatch.CallAnswered(ctx, sess) })
	if s.record != nil {
		if err := s.record.RecordAnswered(ctx, sess, actorUserID); err != nil {
			logger.From(ctx).Warn("call history write failed", "session_id", sess.ID, "err", err)
		}
	}
	return sess, nil
}

// End moves the door bell's connected session to ended.
func (s *Service) End(ctx context.Context, doorBellID, actorUserID string) (Session, error) {
	if doorBellID == "" {
		return Session{}, ErrInvalidArgument
	}

	sess, ok, err := s.repo.End(ctx, doorBellID, s.clock().UTC())
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}

	s.notify(ctx, "ended", sess, func() error { return s.dispatch.CallEnded(ctx, sess) })
	if s.record != nil {
		if err := s.record.RecordEnded(ctx, sess, actorUserID); err != nil {
			logger.From(ctx).Warn("call history write failed", "session_id", sess.ID, "err", err)
		}
	}
	return sess, nil
}

// StatusView is the public, collapsed view of a door bell's current call.
type StatusView struct {
	Status        Status     `json:"status"`
	CallSessionID string     `json:"call_session_id,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ConnectedAt   *time.Time `json:"connected_at,omitempty"`
}

// Status reports the collapsed state of the door bell's most recent session.
// No session at all, or any terminal session, reads as ended; guests polling
// a quiet door bell never see an error for "nothing is happening".
func (s *Service) Status(ctx context.Context, doorBellID string) (StatusView, error) {
	if doorBellID == "" {
		return StatusView{}, ErrInvalidArgument
	}

	sess, ok, err := s.repo.Latest(ctx, doorBellID)
	if err != nil {
		return StatusView{}, err
	}
	if !ok || sess.Status.Terminal() {
		return StatusView{Status: StatusEnded}, nil
	}

	started := sess.StartedAt
	return StatusView{
		Status:        sess.Status.Collapse(),
		CallSessionID: sess.ID,
		StartedAt:     &started,
		ConnectedAt:   sess.ConnectedAt,
	}, nil
}

// PostMessage appends a transcript message to the door bell's connected
// session. Origin must be asserted explicitly by the caller; public guests
// are never defaulted to household.
func (s *Service) PostMessage(ctx context.Context, doorBellID, body string, from Origin) (Message, error) {
	if doorBellID == "" || !from.Valid() {
		return Message{}, ErrInvalidArgument
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrInvalidArgument
	}

	m := Message{
		ID:        uuid.NewString(),
		From:      from,
		Body:      body,
		CreatedAt: s.clock().UTC(),
	}
	m, ok, err := s.repo.AppendMessage(ctx, doorBellID, m)
	if err != nil {
		return Message{}, err
	}
	if !ok {
		return Message{}, ErrNoActiveSession
	}
	return m, nil
}

// Messages returns the connected session's transcript in posting order.
// Absence of a connected session means an empty transcript, not a fault.
func (s *Service) Messages(ctx context.Context, doorBellID string) ([]Message, error) {
	if doorBellID == "" {
		return nil, ErrInvalidArgument
	}
	msgs, err := s.repo.ConnectedMessages(ctx, doorBellID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// RouteTimedOut escalates every ringing session older than the ring timeout,
// returning how many were routed by this invocation. buildingID narrows the
// sweep; empty sweeps system-wide.
//
// Idempotency: the store transitions each eligible session with one
// conditional update, so concurrent or back-to-back invocations route each
// session exactly once and later calls count zero. A per-session dispatch
// failure is logged and never aborts the rest of the sweep.
func (s *Service) RouteTimedOut(ctx context.Context, buildingID string) (int, error) {
	now := s.clock().UTC()
	cutoff := now.Add(-s.ringTimeout)

	routed, err := s.repo.RouteExpired(ctx, buildingID, cutoff, now)
	if err != nil {
		return 0, err
	}

	for _, sess := range routed {
		s.notify(ctx, "routed", sess, func() error { return s.dispatch.CallRouted(ctx, sess) })
		if s.record != nil {
			if err := s.record.RecordRouted(ctx, sess); err != nil {
				logger.From(ctx).Warn("call history write failed", "session_id", sess.ID, "err", err)
			}
		}
	}
	return len(routed), nil
}

// RingTimeout exposes the policy value for wiring (e.g., scan loop pacing).
func (s *Service) RingTimeout() time.Duration { return s.ringTimeout }

func (s *Service) notify(ctx context.Context, event string, sess Session, fn func() error) {
	if s.dispatch == nil {
		return
	}
	if err := fn(); err != nil {
		logger.From(ctx).Warn("call event dispatch failed",
			"event", event,
			"session_id", sess.ID,
			"door_bell_id", sess.DoorBellID,
			"err", err,
		)
	}
}
