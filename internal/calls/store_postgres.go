package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists calls in a single table.
//
// Assumed schema:
//
//	CREATE TABLE calls (
//	  id UUID PRIMARY KEY,
//	  provider TEXT NOT NULL,
//	  external_id TEXT NOT NULL,
//	  org_id TEXT NOT NULL,
//	  phone_number_id TEXT NOT NULL DEFAULT '',
//	  from_number TEXT NOT NULL DEFAULT '',
//	  to_number TEXT NOT NULL DEFAULT '',
//	  direction TEXT NOT NULL DEFAULT 'inbound',
//	  status TEXT NOT NULL,
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  recording_url TEXT NOT NULL DEFAULT '',
//	  transcript TEXT NOT NULL DEFAULT '',
//	  transcript_url TEXT NOT NULL DEFAULT '',
//	  intent JSONB NOT NULL DEFAULT '[]',
//	  disposition TEXT NOT NULL DEFAULT '',
//	  escalated BOOLEAN NOT NULL DEFAULT FALSE,
//	  escalated_to TEXT NOT NULL DEFAULT '',
//	  cost_cents BIGINT,
//	  tags JSONB NOT NULL DEFAULT '[]',
//	  events JSONB NOT NULL DEFAULT '[]',
//	  started_at TIMESTAMPTZ NOT NULL,
//	  ended_at TIMESTAMPTZ,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL,
//	  UNIQUE (provider, external_id)
//	);
//
// The unique constraint is the arbiter for concurrent first-event creates;
// a violation surfaces as ErrAlreadyExists and callers re-read the winner.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const callColumns = `
id, provider, external_id, org_id, phone_number_id, from_number, to_number,
direction, status, duration_seconds, recording_url, transcript, transcript_url,
intent, disposition, escalated, escalated_to, cost_cents, tags, events,
started_at, ended_at, created_at, updated_at`

func (s *PostgresStore) FindByExternal(ctx context.Context, provider Provider, externalID string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE provider = $1 AND external_id = $2
`
	row := s.db.QueryRowContext(ctx, q, provider, externalID)
	return scanCall(row)
}

func (s *PostgresStore) Create(ctx context.Context, c Call) (Call, error) {
	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
`
	now := s.clock().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	intent, tags, events, err := marshalJSONCols(c)
	if err != nil {
		return Call{}, err
	}

	_, err = s.db.ExecContext(ctx, q,
		c.ID,
		c.Provider,
		c.ExternalID,
		c.OrgID,
		c.PhoneNumberID,
		c.FromNumber,
		c.ToNumber,
		c.Direction,
		c.Status,
		c.DurationSeconds,
		c.RecordingURL,
		c.Transcript,
		c.TranscriptURL,
		intent,
		c.Disposition,
		c.Escalated,
		c.EscalatedTo,
		nullInt64(c.CostCents),
		tags,
		events,
		c.StartedAt,
		nullTime(c.EndedAt),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Call{}, ErrAlreadyExists
		}
		return Call{}, err
	}
	return c, nil
}

func (s *PostgresStore) Update(ctx context.Context, c Call) (Call, error) {
	const q = `
UPDATE calls SET
  org_id = $2,
  phone_number_id = $3,
  from_number = $4,
  to_number = $5,
  direction = $6,
  status = $7,
  duration_seconds = $8,
  recording_url = $9,
  transcript = $10,
  transcript_url = $11,
  intent = $12,
  disposition = $13,
  escalated = $14,
  escalated_to = $15,
  cost_cents = $16,
  tags = $17,
  events = $18,
  started_at = $19,
  ended_at = $20,
  updated_at = $21
WHERE id = $1
`
	c.UpdatedAt = s.clock().UTC()

	intent, tags, events, err := marshalJSONCols(c)
	if err != nil {
		return Call{}, err
	}

	res, err := s.db.ExecContext(ctx, q,
		c.ID,
		c.OrgID,
		c.PhoneNumberID,
		c.FromNumber,
		c.ToNumber,
		c.Direction,
		c.Status,
		c.DurationSeconds,
		c.RecordingURL,
		c.Transcript,
		c.TranscriptURL,
		intent,
		c.Disposition,
		c.Escalated,
		c.EscalatedTo,
		nullInt64(c.CostCents),
		tags,
		events,
		c.StartedAt,
		nullTime(c.EndedAt),
		c.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE org_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at
`
	rows, err := s.db.QueryContext(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var intent, tags, events []byte
	var cost sql.NullInt64
	var endedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.Provider,
		&c.ExternalID,
		&c.OrgID,
		&c.PhoneNumberID,
		&c.FromNumber,
		&c.ToNumber,
		&c.Direction,
		&c.Status,
		&c.DurationSeconds,
		&c.RecordingURL,
		&c.Transcript,
		&c.TranscriptURL,
		&intent,
		&c.Disposition,
		&c.Escalated,
		&c.EscalatedTo,
		&cost,
		&tags,
		&events,
		&c.StartedAt,
		&endedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}

	if len(intent) > 0 {
		if err := json.Unmarshal(intent, &c.Intent); err != nil {
			return Call{}, err
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return Call{}, err
		}
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &c.Events); err != nil {
			return Call{}, err
		}
	}
	if cost.Valid {
		v := cost.Int64
		c.CostCents = &v
	}
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	return c, nil
}

func marshalJSONCols(c Call) (intent, tags, events []byte, err error) {
	if intent, err = json.Marshal(emptyIfNil(c.Intent)); err != nil {
		return nil, nil, nil, err
	}
	if tags, err = json.Marshal(emptyIfNil(c.Tags)); err != nil {
		return nil, nil, nil, err
	}
	evs := c.Events
	if evs == nil {
		evs = []EventRecord{}
	}
	if events, err = json.Marshal(evs); err != nil {
		return nil, nil, nil, err
	}
	return intent, tags, events, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
