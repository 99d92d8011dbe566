package orgs

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"receptionist-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore backs organizations and memberships with two tables.
//
// Assumed schema:
//
//	CREATE TABLE organizations (
//	  id UUID PRIMARY KEY,
//	  name TEXT NOT NULL,
//	  status TEXT NOT NULL DEFAULT 'active',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE org_memberships (
//	  org_id UUID NOT NULL REFERENCES organizations(id),
//	  user_id TEXT NOT NULL,
//	  role TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  PRIMARY KEY (org_id, user_id)
//	);
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) CreateOrg(ctx context.Context, o Organization) (Organization, error) {
	const q = `
INSERT INTO organizations (id, name, status, created_at)
VALUES ($1, $2, $3, $4)
`
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	o.CreatedAt = s.clock().UTC()

	_, err := s.db.ExecContext(ctx, q, o.ID, o.Name, o.Status, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Organization{}, ErrAlreadyExists
		}
		return Organization{}, err
	}
	return o, nil
}

// CreateOrgWithOwner provisions the organization row and its owner membership
// in one transaction.
func (s *PostgresStore) CreateOrgWithOwner(ctx context.Context, o Organization, ownerUserID string) (Organization, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	now := s.clock().UTC()
	o.CreatedAt = now

	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const orgQ = `
INSERT INTO organizations (id, name, status, created_at)
VALUES ($1, $2, $3, $4)
`
		if _, err := tx.ExecContext(ctx, orgQ, o.ID, o.Name, o.Status, o.CreatedAt); err != nil {
			return err
		}
		const memberQ = `
INSERT INTO org_memberships (org_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
`
		_, err := tx.ExecContext(ctx, memberQ, o.ID, ownerUserID, "owner", now)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Organization{}, ErrAlreadyExists
		}
		return Organization{}, err
	}
	return o, nil
}

func (s *PostgresStore) GetOrg(ctx context.Context, id string) (Organization, error) {
	const q = `
SELECT id, name, status, created_at
FROM organizations
WHERE id = $1
`
	var o Organization
	err := s.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	if err != nil {
		return Organization{}, err
	}
	return o, nil
}

func (s *PostgresStore) AddMember(ctx context.Context, m Membership) (Membership, error) {
	const q = `
INSERT INTO org_memberships (org_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
`
	m.CreatedAt = s.clock().UTC()
	_, err := s.db.ExecContext(ctx, q, m.OrgID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Membership{}, ErrAlreadyExists
		}
		return Membership{}, err
	}
	return m, nil
}

func (s *PostgresStore) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM org_memberships WHERE org_id = $1 AND user_id = $2
)
`
	var ok bool
	if err := s.db.QueryRowContext(ctx, q, orgID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
