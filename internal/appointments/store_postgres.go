package appointments

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists appointments in a single table.
//
// Assumed schema:
//
//	CREATE TABLE appointments (
//	  id UUID PRIMARY KEY,
//	  org_id UUID NOT NULL,
//	  call_id UUID NOT NULL,
//	  title TEXT NOT NULL,
//	  description TEXT NOT NULL DEFAULT '',
//	  starts_at TIMESTAMPTZ NOT NULL,
//	  ends_at TIMESTAMPTZ NOT NULL,
//	  status TEXT NOT NULL DEFAULT 'scheduled',
//	  source TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const apptColumns = `
id, org_id, call_id, title, description, starts_at, ends_at, status, source, created_at`

func (s *PostgresStore) Create(ctx context.Context, a Appointment) (Appointment, error) {
	const q = `
INSERT INTO appointments (` + apptColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.clock().UTC()

	_, err := s.db.ExecContext(ctx, q,
		a.ID, a.OrgID, a.CallID, a.Title, a.Description,
		a.StartsAt, a.EndsAt, a.Status, a.Source, a.CreatedAt,
	)
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Appointment, error) {
	const q = `
SELECT ` + apptColumns + `
FROM appointments
WHERE id = $1
`
	var a Appointment
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.OrgID, &a.CallID, &a.Title, &a.Description,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.Source, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Appointment, error) {
	const q = `
SELECT ` + apptColumns + `
FROM appointments
WHERE org_id = $1 AND starts_at >= $2 AND starts_at < $3
ORDER BY starts_at
`
	rows, err := s.db.QueryContext(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.OrgID, &a.CallID, &a.Title, &a.Description,
			&a.StartsAt, &a.EndsAt, &a.Status, &a.Source, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
