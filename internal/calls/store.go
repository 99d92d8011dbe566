package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("calls: not found")
	// ErrAlreadyExists signals a (provider, external_id) uniqueness conflict,
	// typically two concurrent first events racing to create the same call.
	ErrAlreadyExists = errors.New("calls: already exists")
)

// Store is the persistence contract for calls.
//
// Implementations must guarantee:
// - (provider, external_id) uniqueness (Create returns ErrAlreadyExists).
// - Update replaces the row atomically; callers serialize per external id.
// - ListByOrg returns rows with created_at in [from, to).
type Store interface {
	FindByExternal(ctx context.Context, provider Provider, externalID string) (Call, error)
	Create(ctx context.Context, c Call) (Call, error)
	Update(ctx context.Context, c Call) (Call, error)
	ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Call, error)
}
