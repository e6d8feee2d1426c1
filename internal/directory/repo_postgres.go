package directory

import (
	"context"
	"database/sql"
	"errors"
)

// NOTE: This repository assumes the following tables exist:
//
// buildings  (id UUID PRIMARY KEY, name VARCHAR, ...)
// households (id UUID PRIMARY KEY, building_id UUID NOT NULL,
//             name VARCHAR NOT NULL, unit_number VARCHAR NOT NULL, ...)
// door_bells (id UUID PRIMARY KEY, building_id UUID NOT NULL,
//             household_id UUID NOT NULL, label VARCHAR NOT NULL,
//             location VARCHAR, enabled BOOLEAN NOT NULL DEFAULT TRUE,
//             created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Path values arrive as raw strings, so the uuid keys are compared as text:
// a malformed id reads as absent instead of erroring the cast, and the
// caller gets its not-found path.

func (r *PostgresRepo) Get(ctx context.Context, doorBellID string) (DoorBell, bool, error) {
	const q = `
SELECT id, building_id, household_id, label, location, enabled, created_at, updated_at
FROM door_bells
WHERE id::text = $1
`
	var d DoorBell
	err := r.db.QueryRowContext(ctx, q, doorBellID).Scan(
		&d.ID,
		&d.BuildingID,
		&d.HouseholdID,
		&d.Label,
		&d.Location,
		&d.Enabled,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DoorBell{}, false, nil
		}
		return DoorBell{}, false, err
	}
	return d, true, nil
}

func (r *PostgresRepo) BuildingExists(ctx context.Context, buildingID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM buildings WHERE id::text = $1)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, buildingID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *PostgresRepo) ListEnabled(ctx context.Context, buildingID string) ([]Listing, error) {
	const q = `
SELECT d.id, d.label, h.name, h.unit_number
FROM door_bells d
JOIN households h ON h.id = d.household_id
WHERE d.building_id::text = $1 AND d.enabled
ORDER BY h.unit_number ASC, d.label ASC
`
	rows, err := r.db.QueryContext(ctx, q, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.DoorBellID, &l.Label, &l.HouseholdName, &l.UnitNumber); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
