package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to an insert-only table.
//
// Assumed schema:
//
//	CREATE TABLE audit_events (
//	  id UUID PRIMARY KEY,
//	  org_id TEXT NOT NULL DEFAULT '',
//	  type TEXT NOT NULL,
//	  actor_user_id TEXT NOT NULL DEFAULT '',
//	  actor_role TEXT NOT NULL DEFAULT '',
//	  ip_address TEXT NOT NULL DEFAULT '',
//	  provider TEXT NOT NULL DEFAULT '',
//	  call_id TEXT NOT NULL DEFAULT '',
//	  appointment_id TEXT NOT NULL DEFAULT '',
//	  message TEXT NOT NULL DEFAULT '',
//	  metadata TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, org_id, type, actor_user_id, actor_role, ip_address,
  provider, call_id, appointment_id, message, metadata, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.OrgID, e.Type, e.ActorUserID, e.ActorRole, e.IPAddress,
		e.Provider, e.CallID, e.AppointmentID, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}
