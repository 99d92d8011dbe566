package billing

import "time"

// Billing models are tenant-scoped. Amounts are expressed in minor units
// (cents) using int64.

// Plan is an organization's subscription terms. The product bills a flat
// monthly fee rather than metering per call, so the plan carries only the fee
// and the staff rate used to value the receptionist's time savings.
type Plan struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	Currency string `json:"currency" db:"currency"`

	// FlatFeeCents is the recurring monthly subscription fee.
	FlatFeeCents int64 `json:"flat_fee_cents" db:"flat_fee_cents"`

	// StaffHourlyCents values one hour of human receptionist time when
	// computing savings.
	StaffHourlyCents int64 `json:"staff_hourly_cents" db:"staff_hourly_cents"`

	// Effective window for the plan.
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status PlanStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)
