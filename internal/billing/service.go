package billing

import (
	"context"
	"errors"
	"math"
	"time"
)

// Service values an organization's usage against its plan.
//
// Contract:
// - Pure calculation + repository lookups, no payment provider calls.
// - Savings and ROI are derived from time saved, not from per-call charges.
// - An organization without a stored plan falls back to the configured
//   default terms.
type Service struct {
	repo     PlanRepository
	defaults Plan
	clock    func() time.Time
}

func NewService(repo PlanRepository, defaults Plan) *Service {
	return &Service{repo: repo, defaults: defaults, clock: time.Now}
}

// PlanRepository abstracts plan persistence.
type PlanRepository interface {
	FindPlan(ctx context.Context, orgID string, at time.Time) (Plan, bool, error)
}

var ErrInvalidBillingReq = errors.New("invalid billing request")

// Summary is the monetary view of one reporting window.
type Summary struct {
	OrgID    string
	Currency string

	FlatFeeCents     int64
	TimeSavedSeconds int

	// SavingsCents is the staff cost avoided by the receptionist handling
	// TimeSavedSeconds of calls.
	SavingsCents int64

	// ROIPercent is (savings - fee) / fee * 100, rounded to two decimals.
	// Negative while savings have not yet covered the subscription.
	ROIPercent float64
}

// Summarize prices a window of saved time for an organization.
func (s *Service) Summarize(ctx context.Context, orgID string, timeSavedSeconds int) (Summary, error) {
	if orgID == "" {
		return Summary{}, ErrInvalidBillingReq
	}
	if timeSavedSeconds < 0 {
		timeSavedSeconds = 0
	}

	plan := s.defaults
	if s.repo != nil {
		stored, ok, err := s.repo.FindPlan(ctx, orgID, s.clock().UTC())
		if err != nil {
			return Summary{}, err
		}
		if ok {
			plan = stored
		}
	}

	savings := SavingsCents(timeSavedSeconds, plan.StaffHourlyCents)

	return Summary{
		OrgID:            orgID,
		Currency:         plan.Currency,
		FlatFeeCents:     plan.FlatFeeCents,
		TimeSavedSeconds: timeSavedSeconds,
		SavingsCents:     savings,
		ROIPercent:       ROIPercent(savings, plan.FlatFeeCents),
	}, nil
}

// SavingsCents converts saved seconds into avoided staff cost, rounding to
// the nearest cent.
func SavingsCents(timeSavedSeconds int, staffHourlyCents int64) int64 {
	if timeSavedSeconds <= 0 || staffHourlyCents <= 0 {
		return 0
	}
	hours := float64(timeSavedSeconds) / 3600
	return int64(math.Round(hours * float64(staffHourlyCents)))
}

// ROIPercent reports savings relative to the fee as a percentage. A zero fee
// yields zero rather than dividing by it.
func ROIPercent(savingsCents, feeCents int64) float64 {
	if feeCents == 0 {
		return 0
	}
	roi := float64(savingsCents-feeCents) / float64(feeCents) * 100
	return math.Round(roi*100) / 100
}
