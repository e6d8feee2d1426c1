package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for call-history events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByBuilding(ctx context.Context, buildingID string, limit int) ([]Event, error)
}

// Service logs internal call-history information.
//
// IMPORTANT:
// - History is internal-only. Do not expose these records to guests.
// - Callers should treat history logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.BuildingID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// Recent returns the building's newest events first, for the front-desk
// history view. Still internal-only: never expose to guests.
func (s *Service) Recent(ctx context.Context, buildingID string, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if buildingID == "" {
		return nil, ErrInvalidEvent
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.ListByBuilding(ctx, buildingID, limit)
}

// LogCallAnswered records a household (or staff) picking up a ring.
func (s *Service) LogCallAnswered(ctx context.Context, buildingID, doorBellID, sessionID, householdID, actorUserID string) error {
	return s.Append(ctx, Event{
		BuildingID:  buildingID,
		Type:        EventTypeCallAnswered,
		ActorUserID: actorUserID,
		DoorBellID:  doorBellID,
		SessionID:   sessionID,
		HouseholdID: householdID,
		Message:     "call answered",
	})
}

// LogCallEnded records a connected call finishing.
func (s *Service) LogCallEnded(ctx context.Context, buildingID, doorBellID, sessionID, householdID, actorUserID string) error {
	return s.Append(ctx, Event{
		BuildingID:  buildingID,
		Type:        EventTypeCallEnded,
		ActorUserID: actorUserID,
		DoorBellID:  doorBellID,
		SessionID:   sessionID,
		HouseholdID: householdID,
		Message:     "call ended",
	})
}

// LogCallRouted records an unanswered ring escalating to the front desk.
func (s *Service) LogCallRouted(ctx context.Context, buildingID, doorBellID, sessionID, householdID string) error {
	return s.Append(ctx, Event{
		BuildingID:  buildingID,
		Type:        EventTypeCallRouted,
		DoorBellID:  doorBellID,
		SessionID:   sessionID,
		HouseholdID: householdID,
		Message:     "ring timed out, routed to front desk",
	})
}
