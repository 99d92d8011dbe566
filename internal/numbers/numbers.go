// Package numbers tracks the phone numbers provisioned for organizations.
// Webhook context resolution maps an inbound "to" number onto its owning
// organization through this inventory.
package numbers

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("numbers: not found")
	ErrAlreadyExists = errors.New("numbers: already exists")
)

type NumberStatus string

const (
	NumberStatusActive   NumberStatus = "active"
	NumberStatusReleased NumberStatus = "released"
)

// PhoneNumber is one E.164 line assigned to an organization. A released
// number keeps its row for historical call records but stops resolving.
type PhoneNumber struct {
	ID        string       `json:"id"`
	OrgID     string       `json:"orgId"`
	Number    string       `json:"number"`
	Status    NumberStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Store interface {
	Create(ctx context.Context, n PhoneNumber) (PhoneNumber, error)
	// FindActiveByNumber resolves a dialed number to its active assignment.
	// Released numbers return ErrNotFound.
	FindActiveByNumber(ctx context.Context, number string) (PhoneNumber, error)
	Release(ctx context.Context, id string) error
}
