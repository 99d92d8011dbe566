package usage

import (
	"fmt"
	"time"
)

// Usage models are tenant-scoped (org_id required everywhere).

// WorkflowExecution is one run of an org's automation workflow, ingested
// from the automation provider alongside its call webhooks.
type WorkflowExecution struct {
	ID         string    `json:"id" db:"id"`
	OrgID      string    `json:"org_id" db:"org_id"`
	WorkflowID string    `json:"workflow_id" db:"workflow_id"`
	Status     string    `json:"status" db:"status"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
}

const (
	ExecutionSucceeded = "succeeded"
	ExecutionFailed    = "failed"
	ExecutionRunning   = "running"
)

// Window is a half-open reporting interval [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Named reporting periods accepted by the report endpoint.
const (
	PeriodCurrentMonth = "current_month"
	PeriodLastMonth    = "last_month"
	PeriodCurrentYear  = "current_year"
)

// ResolveWindow maps period names or explicit dates onto a Window. Explicit
// dates take precedence; the end date is inclusive of its whole day. An
// unrecognized period falls back to the current month rather than failing, so
// dashboards always render something.
func ResolveWindow(period, startDate, endDate string, now time.Time) (Window, error) {
	if startDate != "" || endDate != "" {
		from, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return Window{}, fmt.Errorf("usage: invalid startDate %q", startDate)
		}
		to, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return Window{}, fmt.Errorf("usage: invalid endDate %q", endDate)
		}
		// An inverted range yields an empty window, not an error.
		return Window{From: from.UTC(), To: to.UTC().AddDate(0, 0, 1)}, nil
	}

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodLastMonth:
		return Window{From: monthStart.AddDate(0, -1, 0), To: monthStart}, nil
	case PeriodCurrentYear:
		yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Window{From: yearStart, To: yearStart.AddDate(1, 0, 0)}, nil
	case PeriodCurrentMonth:
		return Window{From: monthStart, To: monthStart.AddDate(0, 1, 0)}, nil
	default:
		return Window{From: monthStart, To: monthStart.AddDate(0, 1, 0)}, nil
	}
}

// Report is the aggregated view of one org over one window.
type Report struct {
	OrgID  string `json:"orgId"`
	Window Window `json:"window"`

	Calls     CallsRollup    `json:"calls"`
	Workflows WorkflowRollup `json:"workflows"`
	Billing   BillingRollup  `json:"billing"`
}

type CallsRollup struct {
	TotalCalls             int     `json:"totalCalls"`
	TotalDurationSeconds   int     `json:"totalDurationSeconds"`
	AverageDurationSeconds float64 `json:"averageDurationSeconds"`
	EscalatedCalls         int     `json:"escalatedCalls"`

	// TimeSavedSeconds is the staff time the receptionist absorbed; every
	// second of handled call time counts.
	TimeSavedSeconds        int     `json:"timeSavedSeconds"`
	AverageTimeSavedSeconds float64 `json:"averageTimeSavedSeconds"`

	// TotalCostCents sums provider-reported call costs; calls without a
	// reported cost contribute zero.
	TotalCostCents   int64   `json:"totalCostCents"`
	AverageCostCents float64 `json:"averageCostCents"`

	ByStatus map[string]int `json:"byStatus"`
	ByIntent map[string]int `json:"byIntent"`

	Daily []DailyPoint `json:"daily"`
}

// DailyPoint is one UTC day of call volume, keyed by ISO date.
type DailyPoint struct {
	Date            string `json:"date"`
	Calls           int    `json:"calls"`
	DurationSeconds int    `json:"durationSeconds"`
	CostCents       int64  `json:"costCents"`
}

type WorkflowRollup struct {
	TotalExecutions   int     `json:"totalExecutions"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	SuccessRate       float64 `json:"successRate"`
	AverageDurationMs float64 `json:"averageDurationMs"`

	Daily []WorkflowDailyPoint `json:"daily"`
}

// WorkflowDailyPoint is one UTC day of execution volume, keyed by the ISO
// date of StartedAt.
type WorkflowDailyPoint struct {
	Date       string `json:"date"`
	Executions int    `json:"executions"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}

type BillingRollup struct {
	FlatFeeCents int64   `json:"flatFeeCents"`
	SavingsCents int64   `json:"savingsCents"`
	ROIPercent   float64 `json:"roiPercent"`
}
