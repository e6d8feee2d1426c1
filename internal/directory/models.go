package directory

import "time"

// DoorBell identifies a physical call point at a building entrance or unit
// door. The call core reads the doorbell-to-household association; doorbell
// provisioning is owned elsewhere.
type DoorBell struct {
	ID          string `json:"id" db:"id"`
	BuildingID  string `json:"building_id" db:"building_id"`
	HouseholdID string `json:"household_id" db:"household_id"`

	Label    string `json:"label" db:"label"`
	Location string `json:"location,omitempty" db:"location"`
	Enabled  bool   `json:"enabled" db:"enabled"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Listing is the public directory row: what a guest at the entrance panel
// sees when choosing whom to ring. Disabled doorbells are never listed.
type Listing struct {
	DoorBellID    string `json:"door_bell_id"`
	Label         string `json:"label"`
	HouseholdName string `json:"household_name"`
	UnitNumber    string `json:"unit_number"`
}
