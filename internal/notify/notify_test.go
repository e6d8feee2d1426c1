package notify

import (
	"context"
	"testing"
	"time"

	"intercom-platform/internal/callsession"
)

func TestChannelNames(t *testing.T) {
	if got := FrontDeskChannel("b1"); got != "building:b1:front-desk" {
		t.Fatalf("unexpected front desk channel: %s", got)
	}
	if got := HouseholdChannel("h1"); got != "household:h1:calls" {
		t.Fatalf("unexpected household channel: %s", got)
	}
}

func TestMemoryDispatcher_RecordsRoutedEvent(t *testing.T) {
	d := NewMemoryDispatcher()
	s := callsession.Session{
		ID:          "s1",
		DoorBellID:  "bell-1",
		BuildingID:  "b1",
		HouseholdID: "h1",
		Status:      callsession.StatusRouted,
		StartedAt:   time.Unix(1700000000, 0).UTC(),
	}
	if err := d.CallRouted(context.Background(), s); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	evs := d.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].Event != EventRouted || evs[0].CallSessionID != "s1" || evs[0].Status != "routed" {
		t.Fatalf("unexpected event: %+v", evs[0])
	}
}

func TestRedisDispatcher_NilClientErrors(t *testing.T) {
	d := NewRedisDispatcher(nil)
	if err := d.CallRinging(context.Background(), callsession.Session{ID: "s"}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
