package directory

import (
	"context"
	"testing"
)

func seededRepo() *MemoryRepo {
	r := NewMemoryRepo()
	r.Buildings = []string{"b1"}
	r.Households["h1"] = HouseholdInfo{Name: "Khan", UnitNumber: "101"}
	r.Households["h2"] = HouseholdInfo{Name: "Okafor", UnitNumber: "102"}
	r.DoorBells = []DoorBell{
		{ID: "bell-1", BuildingID: "b1", HouseholdID: "h1", Label: "Front", Enabled: true},
		{ID: "bell-2", BuildingID: "b1", HouseholdID: "h2", Label: "Front", Enabled: true},
		{ID: "bell-3", BuildingID: "b1", HouseholdID: "h2", Label: "Back", Enabled: false},
	}
	return r
}

func TestListEnabled_SkipsDisabledAndSorts(t *testing.T) {
	svc := NewService(seededRepo())

	out, err := svc.ListEnabled(context.Background(), "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out))
	}
	if out[0].UnitNumber != "101" || out[1].UnitNumber != "102" {
		t.Fatalf("expected unit order, got %+v", out)
	}
	if out[0].HouseholdName != "Khan" {
		t.Fatalf("expected household display name, got %+v", out[0])
	}
}

func TestListEnabled_UnknownBuildingNotFound(t *testing.T) {
	svc := NewService(seededRepo())
	if _, err := svc.ListEnabled(context.Background(), "b-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_DisabledBellResolvesButCannotRing(t *testing.T) {
	svc := NewService(seededRepo())

	if _, err := svc.Get(context.Background(), "bell-3"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.GetEnabled(context.Background(), "bell-3"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for disabled bell, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "bell-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
