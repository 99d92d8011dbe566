// Package appointments turns detected booking intent into scheduled
// appointments. Extraction is heuristic: a transcript that mentions a day and
// a time yields a tentative slot for staff to confirm, anything less is
// silently skipped.
package appointments

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("appointments: not found")

// SourceReceptionist marks appointments created from call analysis rather
// than manual entry.
const SourceReceptionist = "ai_receptionist"

type Appointment struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	CallID      string    `json:"callId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Store interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	ListByOrg(ctx context.Context, orgID string, from, to time.Time) ([]Appointment, error)
}
