package numbers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore keeps the number inventory in a single table.
//
// Assumed schema:
//
//	CREATE TABLE phone_numbers (
//	  id UUID PRIMARY KEY,
//	  org_id UUID NOT NULL,
//	  number TEXT NOT NULL,
//	  status TEXT NOT NULL DEFAULT 'active',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX phone_numbers_active_number
//	  ON phone_numbers (number) WHERE status = 'active';
//
// The partial unique index allows a released number to be re-provisioned
// while only one active assignment exists at a time.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	const q = `
INSERT INTO phone_numbers (id, org_id, number, status, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = NumberStatusActive
	}
	n.CreatedAt = s.clock().UTC()

	_, err := s.db.ExecContext(ctx, q, n.ID, n.OrgID, n.Number, n.Status, n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return PhoneNumber{}, ErrAlreadyExists
		}
		return PhoneNumber{}, err
	}
	return n, nil
}

func (s *PostgresStore) FindActiveByNumber(ctx context.Context, number string) (PhoneNumber, error) {
	const q = `
SELECT id, org_id, number, status, created_at
FROM phone_numbers
WHERE number = $1 AND status = 'active'
`
	var n PhoneNumber
	err := s.db.QueryRowContext(ctx, q, number).Scan(&n.ID, &n.OrgID, &n.Number, &n.Status, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PhoneNumber{}, ErrNotFound
	}
	if err != nil {
		return PhoneNumber{}, err
	}
	return n, nil
}

func (s *PostgresStore) Release(ctx context.Context, id string) error {
	const q = `
UPDATE phone_numbers SET status = 'released' WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
