package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresBuildingAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallRouted}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{BuildingID: "b"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_RecentFiltersAndOrders(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogCallRouted(context.Background(), "b1", "bell-1", "s1", "h1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogCallAnswered(context.Background(), "b2", "bell-9", "s9", "h9", "u9"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogCallAnswered(context.Background(), "b1", "bell-1", "s2", "h1", "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs, err := svc.Recent(context.Background(), "b1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events for b1, got %d", len(evs))
	}
	// Newest first.
	if evs[0].Type != EventTypeCallAnswered || evs[1].Type != EventTypeCallRouted {
		t.Fatalf("unexpected order: %+v", evs)
	}

	if _, err := svc.Recent(context.Background(), "", 10); err == nil {
		t.Fatalf("expected error for missing building")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogCallRouted(context.Background(), "b1", "bell-1", "s1", "h1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.OfType(EventTypeCallRouted)
	if len(evs) != 1 {
		t.Fatalf("expected 1 routed event, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
	if evs[0].ActorUserID != "" {
		t.Fatalf("scanner escalation must have no actor")
	}
}
