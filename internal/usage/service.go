package usage

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"receptionist-platform/internal/billing"
	"receptionist-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("usage: invalid request")

// Repository abstracts data access for usage reporting.
//
// Implementations must enforce org filtering; the service trusts that a
// returned row belongs to the requested org.
type Repository interface {
	ListCalls(ctx context.Context, orgID string, from, to time.Time) ([]calls.Call, error)
	ListWorkflowExecutions(ctx context.Context, orgID string, from, to time.Time) ([]WorkflowExecution, error)
}

type Service struct {
	repo    Repository
	billing *billing.Service
}

func NewService(repo Repository, billingSvc *billing.Service) *Service {
	return &Service{repo: repo, billing: billingSvc}
}

// Report aggregates one org's calls and workflow executions over a window.
// The two reads are independent and run concurrently.
func (s *Service) Report(ctx context.Context, orgID string, win Window) (Report, error) {
	if orgID == "" {
		return Report{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return Report{}, errors.New("usage: repository not configured")
	}

	var (
		callRows []calls.Call
		execRows []WorkflowExecution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListCalls(gctx, orgID, win.From, win.To)
		callRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ListWorkflowExecutions(gctx, orgID, win.From, win.To)
		execRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	out := Report{
		OrgID:     orgID,
		Window:    win,
		Calls:     rollupCalls(callRows),
		Workflows: rollupWorkflows(execRows),
	}

	if s.billing != nil {
		sum, err := s.billing.Summarize(ctx, orgID, out.Calls.TimeSavedSeconds)
		if err != nil {
			return Report{}, err
		}
		out.Billing = BillingRollup{
			FlatFeeCents: sum.FlatFeeCents,
			SavingsCents: sum.SavingsCents,
			ROIPercent:   sum.ROIPercent,
		}
	}
	return out, nil
}

func rollupCalls(rows []calls.Call) CallsRollup {
	out := CallsRollup{
		ByStatus: map[string]int{},
		ByIntent: map[string]int{},
	}

	daily := map[string]*DailyPoint{}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.Escalated {
			out.EscalatedCalls++
		}

		var cost int64
		if c.CostCents != nil {
			cost = *c.CostCents
		}
		out.TotalCostCents += cost

		out.ByStatus[string(c.Status)]++
		for _, intent := range c.Intent {
			out.ByIntent[intent]++
		}

		day := c.CreatedAt.UTC().Format("2006-01-02")
		p, ok := daily[day]
		if !ok {
			p = &DailyPoint{Date: day}
			daily[day] = p
		}
		p.Calls++
		p.DurationSeconds += c.DurationSeconds
		p.CostCents += cost
	}

	out.TimeSavedSeconds = out.TotalDurationSeconds
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = round2(float64(out.TotalDurationSeconds) / float64(out.TotalCalls))
		out.AverageTimeSavedSeconds = out.AverageDurationSeconds
		out.AverageCostCents = round2(float64(out.TotalCostCents) / float64(out.TotalCalls))
	}

	out.Daily = make([]DailyPoint, 0, len(daily))
	for _, p := range daily {
		out.Daily = append(out.Daily, *p)
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date < out.Daily[j].Date })
	return out
}

func rollupWorkflows(rows []WorkflowExecution) WorkflowRollup {
	var out WorkflowRollup
	var totalMs int64
	daily := map[string]*WorkflowDailyPoint{}
	for _, e := range rows {
		out.TotalExecutions++
		totalMs += e.DurationMs

		day := e.StartedAt.UTC().Format("2006-01-02")
		p, ok := daily[day]
		if !ok {
			p = &WorkflowDailyPoint{Date: day}
			daily[day] = p
		}
		p.Executions++

		switch e.Status {
		case ExecutionSucceeded:
			out.Succeeded++
			p.Succeeded++
		case ExecutionFailed:
			out.Failed++
			p.Failed++
		}
	}
	if out.TotalExecutions > 0 {
		out.SuccessRate = round2(float64(out.Succeeded) / float64(out.TotalExecutions) * 100)
		out.AverageDurationMs = round2(float64(totalMs) / float64(out.TotalExecutions))
	}

	out.Daily = make([]WorkflowDailyPoint, 0, len(daily))
	for _, p := range daily {
		out.Daily = append(out.Daily, *p)
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date < out.Daily[j].Date })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
