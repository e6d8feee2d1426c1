package notify

import (
	"context"
	"sync"

	"intercom-platform/internal/callsession"
)

// MemoryDispatcher records events in-process. Useful for tests and as a
// no-broker fallback in local development.
type MemoryDispatcher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryDispatcher() *MemoryDispatcher { return &MemoryDispatcher{} }

func (d *MemoryDispatcher) record(event string, s callsession.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, Event{
		Event:         event,
		CallSessionID: s.ID,
		DoorBellID:    s.DoorBellID,
		BuildingID:    s.BuildingID,
		HouseholdID:   s.HouseholdID,
		Status:        string(s.Status),
		StartedAt:     s.StartedAt,
		ConnectedAt:   s.ConnectedAt,
	})
	return nil
}

func (d *MemoryDispatcher) CallRinging(ctx context.Context, s callsession.Session) error {
	return d.record(EventRinging, s)
}

func (d *MemoryDispatcher) CallAnswered(ctx context.Context, s callsession.Session) error {
	return d.record(EventAnswered, s)
}

func (d *MemoryDispatcher) CallEnded(ctx context.Context, s callsession.Session) error {
	return d.record(EventEnded, s)
}

func (d *MemoryDispatcher) CallRouted(ctx context.Context, s callsession.Session) error {
	return d.record(EventRouted, s)
}

func (d *MemoryDispatcher) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}
