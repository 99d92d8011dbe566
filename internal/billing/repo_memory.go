package billing

import (
	"context"
	"time"
)

// MemoryRepo is a simple in-memory plan repository for tests and early
// development.
type MemoryRepo struct {
	Plans []Plan
}

func (r *MemoryRepo) FindPlan(ctx context.Context, orgID string, at time.Time) (Plan, bool, error) {
	_ = ctx

	// Prefer the most recent effective plan row.
	var best Plan
	found := false

	for _, p := range r.Plans {
		if p.OrgID != orgID {
			continue
		}
		if p.Status != PlanStatusActive {
			continue
		}
		if at.Before(p.EffectiveFrom) {
			continue
		}
		if p.EffectiveTo != nil && !at.Before(*p.EffectiveTo) {
			continue
		}

		if !found || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
			found = true
		}
	}

	return best, found, nil
}
