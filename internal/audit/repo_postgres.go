package audit

import (
	"context"
	"database/sql"
)

// NOTE: This repository assumes a call_events table:
//
// call_events (
//   id            UUID PRIMARY KEY,
//   building_id   UUID NOT NULL,
//   type          VARCHAR(32) NOT NULL,
//   actor_user_id UUID,
//   door_bell_id  UUID,
//   session_id    UUID,
//   household_id  UUID,
//   message       TEXT,
//   created_at    TIMESTAMPTZ NOT NULL
// )
//
// INSERT-only by policy; no UPDATE or DELETE is ever issued here.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO call_events (
  id, building_id, type, actor_user_id, door_bell_id, session_id, household_id, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.BuildingID,
		e.Type,
		nullableID(e.ActorUserID),
		nullableID(e.DoorBellID),
		nullableID(e.SessionID),
		nullableID(e.HouseholdID),
		e.Message,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByBuilding(ctx context.Context, buildingID string, limit int) ([]Event, error) {
	const q = `
SELECT id, building_id, type, actor_user_id, door_bell_id, session_id, household_id, message, created_at
FROM call_events
WHERE building_id::text = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, buildingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e                             Event
			actor, bell, session, houseID sql.NullString
			message                       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BuildingID, &e.Type, &actor, &bell, &session, &houseID, &message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ActorUserID = actor.String
		e.DoorBellID = bell.String
		e.SessionID = session.String
		e.HouseholdID = houseID.String
		e.Message = message.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// nullableID maps an absent optional id to NULL. The optional columns are
// uuid-typed and reject the empty string; scanner-routed events have no
// actor at all.
func nullableID(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
