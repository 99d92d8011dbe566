package usage

import (
	"context"
	"database/sql"
	"time"

	"receptionist-platform/internal/calls"
)

// PostgresRepo reads calls through the call store and workflow executions
// from their own table.
//
// Assumed schema:
//
//	CREATE TABLE workflow_executions (
//	  id UUID PRIMARY KEY,
//	  org_id UUID NOT NULL,
//	  workflow_id TEXT NOT NULL DEFAULT '',
//	  status TEXT NOT NULL,
//	  duration_ms BIGINT NOT NULL DEFAULT 0,
//	  started_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db    *sql.DB
	calls calls.Store
}

func NewPostgresRepo(db *sql.DB, callStore calls.Store) *PostgresRepo {
	return &PostgresRepo{db: db, calls: callStore}
}

func (r *PostgresRepo) ListCalls(ctx context.Context, orgID string, from, to time.Time) ([]calls.Call, error) {
	return r.calls.ListByOrg(ctx, orgID, from, to)
}

func (r *PostgresRepo) ListWorkflowExecutions(ctx context.Context, orgID string, from, to time.Time) ([]WorkflowExecution, error) {
	const q = `
SELECT id, org_id, workflow_id, status, duration_ms, started_at
FROM workflow_executions
WHERE org_id = $1 AND started_at >= $2 AND started_at < $3
ORDER BY started_at
`
	rows, err := r.db.QueryContext(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WorkflowExecution, 0)
	for rows.Next() {
		var e WorkflowExecution
		if err := rows.Scan(&e.ID, &e.OrgID, &e.WorkflowID, &e.Status, &e.DurationMs, &e.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
