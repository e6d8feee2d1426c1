package directory

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu         sync.Mutex
	DoorBells  []DoorBell
	Buildings  []string
	Households map[string]HouseholdInfo // keyed by household id
}

type HouseholdInfo struct {
	Name       string
	UnitNumber string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Households: map[string]HouseholdInfo{}}
}

func (r *MemoryRepo) Get(ctx context.Context, doorBellID string) (DoorBell, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.DoorBells {
		if d.ID == doorBellID {
			return d, true, nil
		}
	}
	return DoorBell{}, false, nil
}

func (r *MemoryRepo) BuildingExists(ctx context.Context, buildingID string) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.Buildings {
		if b == buildingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) ListEnabled(ctx context.Context, buildingID string) ([]Listing, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Listing
	for _, d := range r.DoorBells {
		if d.BuildingID != buildingID || !d.Enabled {
			continue
		}
		h := r.Households[d.HouseholdID]
		out = append(out, Listing{
			DoorBellID:    d.ID,
			Label:         d.Label,
			HouseholdName: h.Name,
			UnitNumber:    h.UnitNumber,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitNumber != out[j].UnitNumber {
			return out[i].UnitNumber < out[j].UnitNumber
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}
