// Package orgs holds tenant organizations and their user memberships.
// Every domain record and every API route is scoped to an organization.
package orgs

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("orgs: not found")
	ErrAlreadyExists = errors.New("orgs: already exists")
)

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    OrgStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Membership links a user to an organization with a single role.
type Membership struct {
	OrgID     string    `json:"orgId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	CreateOrg(ctx context.Context, o Organization) (Organization, error)
	// CreateOrgWithOwner provisions an organization and its owner membership
	// atomically; a failure leaves neither behind.
	CreateOrgWithOwner(ctx context.Context, o Organization, ownerUserID string) (Organization, error)
	GetOrg(ctx context.Context, id string) (Organization, error)
	AddMember(ctx context.Context, m Membership) (Membership, error)
	// IsMember satisfies the route guard's membership check.
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
}
