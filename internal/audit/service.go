package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	// Rejected webhooks are the one record allowed without a tenant: no org
	// has been resolved when authentication fails.
	if e.OrgID == "" && e.Type != EventTypeWebhookRejected {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogWebhookRejected records a webhook delivery that failed authentication.
func (s *Service) LogWebhookRejected(ctx context.Context, provider, ip, reason string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeWebhookRejected,
		Provider:  provider,
		IPAddress: ip,
		Message:   reason,
	})
}

// LogContextMiss records an authenticated webhook whose dialed number did not
// resolve to any active organization.
func (s *Service) LogContextMiss(ctx context.Context, provider, toNumber, externalID string) error {
	return s.Append(ctx, Event{
		OrgID:    "unresolved",
		Type:     EventTypeContextMiss,
		Provider: provider,
		Message:  "no active number assignment for " + toNumber,
		Metadata: `{"externalId":"` + externalID + `"}`,
	})
}

// LogAppointmentCreated records a booking made from a call.
func (s *Service) LogAppointmentCreated(ctx context.Context, orgID, callID, appointmentID string) error {
	return s.Append(ctx, Event{
		OrgID:         orgID,
		Type:          EventTypeAppointmentCreated,
		CallID:        callID,
		AppointmentID: appointmentID,
		Message:       "appointment booked by receptionist",
	})
}

// LogAdminAction records an admin action.
func (s *Service) LogAdminAction(ctx context.Context, orgID, actorUserID, actorRole, ip, message, metadata string) error {
	return s.Append(ctx, Event{
		OrgID:       orgID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
		Metadata:    metadata,
	})
}
