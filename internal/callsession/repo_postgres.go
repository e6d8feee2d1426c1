package callsession

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"intercom-platform/pkg/utils"
)

// NOTE: This repository assumes the following tables exist:
//
// call_sessions (
//   id           UUID PRIMARY KEY,
//   door_bell_id UUID NOT NULL,
//   building_id  UUID NOT NULL,
//   household_id UUID NOT NULL,
//   status       VARCHAR(16) NOT NULL,
//   started_at   TIMESTAMPTZ NOT NULL,
//   connected_at TIMESTAMPTZ,
//   updated_at   TIMESTAMPTZ NOT NULL
// )
//
// call_messages (
//   id         UUID PRIMARY KEY,
//   session_id UUID NOT NULL REFERENCES call_sessions(id),
//   origin     VARCHAR(16) NOT NULL,
//   body       TEXT NOT NULL,
//   seq        BIGSERIAL,
//   created_at TIMESTAMPTZ NOT NULL
// )
//
// It also assumes the one-active-session invariant is backed by a partial
// unique index, which closes the race between two simultaneous presses:
//
//   CREATE UNIQUE INDEX call_sessions_active_uq
//   ON call_sessions (door_bell_id)
//   WHERE status IN ('ringing', 'connected');

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const sessionColumns = `id, door_bell_id, building_id, household_id, status, started_at, connected_at, updated_at`

func scanSession(row interface {
	Scan(dest ...any) error
}) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.DoorBellID,
		&s.BuildingID,
		&s.HouseholdID,
		&s.Status,
		&s.StartedAt,
		&s.ConnectedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *PostgresRepo) Create(ctx context.Context, s Session) (Session, bool, error) {
	// The partial unique index is the arbiter: the losing press of a race
	// hits the conflict and falls through to the existing active session.
	// Insert and fallback read run in one transaction so the loser sees the
	// session that beat it.
	const insertQ = `
INSERT INTO call_sessions (id, door_bell_id, building_id, household_id, status, started_at, connected_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NULL, $6)
ON CONFLICT (door_bell_id) WHERE status IN ('ringing', 'connected') DO NOTHING
`
	const activeQ = `
SELECT ` + sessionColumns + `
FROM call_sessions
WHERE door_bell_id = $1 AND status IN ('ringing', 'connected')
LIMIT 1
`
	var (
		out     Session
		created bool
	)
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertQ, s.ID, s.DoorBellID, s.BuildingID, s.HouseholdID, StatusRinging, s.StartedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 1 {
			s.Status = StatusRinging
			s.UpdatedAt = s.StartedAt
			out, created = s, true
			return nil
		}

		existing, err := scanSession(tx.QueryRowContext(ctx, activeQ, s.DoorBellID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Conflict without a visible row means the racing session
				// ended between our insert and the read. Treat as store
				// inconsistency.
				return errors.New("call session: active session vanished after conflict")
			}
			return err
		}
		out, created = existing, false
		return nil
	})
	if err != nil {
		return Session{}, false, err
	}
	return out, created, nil
}

func (r *PostgresRepo) Latest(ctx context.Context, doorBellID string) (Session, bool, error) {
	const q = `
SELECT ` + sessionColumns + `
FROM call_sessions
WHERE door_bell_id = $1
ORDER BY started_at DESC
LIMIT 1
`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, doorBellID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) Connect(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error) {
	// Conditional update: the status guard in the outer WHERE makes this a
	// compare-and-swap. If the scanner routed the ring first, zero rows match
	// and the answer loses cleanly.
	const q = `
UPDATE call_sessions
SET status = $3, connected_at = $2, updated_at = $2
WHERE id = (
    SELECT id FROM call_sessions
    WHERE door_bell_id = $1 AND status = $4
    ORDER BY started_at DESC
    LIMIT 1
)
AND status = $4
RETURNING ` + sessionColumns + `
`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, doorBellID, at, StatusConnected, StatusRinging))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) End(ctx context.Context, doorBellID string, at time.Time) (Session, bool, error) {
	const q = `
UPDATE call_sessions
SET status = $3, updated_at = $2
WHERE id = (
    SELECT id FROM call_sessions
    WHERE door_bell_id = $1 AND status = $4
    ORDER BY started_at DESC
    LIMIT 1
)
AND status = $4
RETURNING ` + sessionColumns + `
`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, doorBellID, at, StatusEnded, StatusConnected))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) RouteExpired(ctx context.Context, buildingID string, cutoff, at time.Time) ([]Session, error) {
	// Single conditional statement, not read-then-write: concurrent sweeps
	// cannot both claim a session because the status guard admits each row
	// into exactly one UPDATE. Scoped and system-wide sweeps are separate
	// statements; an "empty means all" sentinel folded into the uuid
	// comparison would leave the parameter without one deducible type.
	const scopedQ = `
UPDATE call_sessions
SET status = $4, updated_at = $3
WHERE status = $5
  AND started_at < $2
  AND building_id = $1
RETURNING ` + sessionColumns + `
`
	const allQ = `
UPDATE call_sessions
SET status = $3, updated_at = $2
WHERE status = $4
  AND started_at < $1
RETURNING ` + sessionColumns + `
`
	var (
		rows *sql.Rows
		err  error
	)
	if buildingID == "" {
		rows, err = r.db.QueryContext(ctx, allQ, cutoff, at, StatusRouted, StatusRinging)
	} else {
		rows, err = r.db.QueryContext(ctx, scopedQ, buildingID, cutoff, at, StatusRouted, StatusRinging)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routed []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		routed = append(routed, s)
	}
	return routed, rows.Err()
}

func (r *PostgresRepo) AppendMessage(ctx context.Context, doorBellID string, m Message) (Message, bool, error) {
	// INSERT..SELECT keeps the connected-only guard and the append in one
	// statement; a session ending mid-post simply yields zero rows.
	const q = `
INSERT INTO call_messages (id, session_id, origin, body, created_at)
SELECT $1, s.id, $2, $3, $4
FROM (
    SELECT id FROM call_sessions
    WHERE door_bell_id = $5 AND status = $6
    ORDER BY started_at DESC
    LIMIT 1
) s
RETURNING session_id, seq
`
	err := r.db.QueryRowContext(ctx, q, m.ID, m.From, m.Body, m.CreatedAt, doorBellID, StatusConnected).
		Scan(&m.SessionID, &m.Seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Message{}, false, nil
		}
		return Message{}, false, err
	}
	return m, true, nil
}

func (r *PostgresRepo) ConnectedMessages(ctx context.Context, doorBellID string) ([]Message, error) {
	const q = `
SELECT m.id, m.session_id, m.origin, m.body, m.seq, m.created_at
FROM call_messages m
JOIN call_sessions s ON s.id = m.session_id
WHERE s.door_bell_id = $1 AND s.status = $2
ORDER BY m.created_at ASC, m.seq ASC
`
	rows, err := r.db.QueryContext(ctx, q, doorBellID, StatusConnected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.From, &m.Body, &m.Seq, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
