package directory

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("directory: not found")
	ErrInvalidArgument = errors.New("directory: invalid argument")
)

// Repository is the read-only persistence contract for the doorbell
// directory. The call core never mutates doorbells or households.
type Repository interface {
	Get(ctx context.Context, doorBellID string) (DoorBell, bool, error)
	BuildingExists(ctx context.Context, buildingID string) (bool, error)
	ListEnabled(ctx context.Context, buildingID string) ([]Listing, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get resolves a doorbell or reports ErrNotFound. Disabled doorbells resolve
// too: an existing panel keeps polling its status even while disabled, it
// just cannot start new calls.
func (s *Service) Get(ctx context.Context, doorBellID string) (DoorBell, error) {
	if doorBellID == "" {
		return DoorBell{}, ErrInvalidArgument
	}
	d, ok, err := s.repo.Get(ctx, doorBellID)
	if err != nil {
		return DoorBell{}, err
	}
	if !ok {
		return DoorBell{}, ErrNotFound
	}
	return d, nil
}

// GetEnabled resolves a doorbell that may start calls.
func (s *Service) GetEnabled(ctx context.Context, doorBellID string) (DoorBell, error) {
	d, err := s.Get(ctx, doorBellID)
	if err != nil {
		return DoorBell{}, err
	}
	if !d.Enabled {
		return DoorBell{}, ErrNotFound
	}
	return d, nil
}

// RequireBuilding resolves a building id or reports ErrNotFound.
func (s *Service) RequireBuilding(ctx context.Context, buildingID string) error {
	if buildingID == "" {
		return ErrInvalidArgument
	}
	ok, err := s.repo.BuildingExists(ctx, buildingID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListEnabled returns the building's public directory. Unknown buildings are
// ErrNotFound; a known building with no doorbells lists empty.
func (s *Service) ListEnabled(ctx context.Context, buildingID string) ([]Listing, error) {
	if err := s.RequireBuilding(ctx, buildingID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListEnabled(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Listing{}
	}
	return out, nil
}
