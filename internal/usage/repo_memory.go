package usage

import (
	"context"
	"errors"
	"sync"
	"time"

	"receptionist-platform/internal/calls"
)

// MemoryRepo is a simple in-memory usage repository for tests and early
// development. It enforces org isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Calls      []calls.Call
	Executions []WorkflowExecution
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(ctx context.Context, orgID string, from, to time.Time) ([]calls.Call, error) {
	if orgID == "" {
		return nil, errors.New("org_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Call, 0)
	for _, c := range r.Calls {
		if c.OrgID != orgID {
			continue
		}
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListWorkflowExecutions(ctx context.Context, orgID string, from, to time.Time) ([]WorkflowExecution, error) {
	if orgID == "" {
		return nil, errors.New("org_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WorkflowExecution, 0)
	for _, e := range r.Executions {
		if e.OrgID != orgID {
			continue
		}
		if e.StartedAt.Before(from) || !e.StartedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
