package appointments

import (
	"context"
	"fmt"
	"time"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/events"
	"receptionist-platform/pkg/logger"
)

// Service consumes booking intents and books tentative appointments. It is
// wired to the domain event bus at startup, so a failure here never fails the
// webhook that produced the intent.
type Service struct {
	store     Store
	calls     calls.Store
	extractor DateExtractor
	clock     func() time.Time
}

func NewService(store Store, callStore calls.Store, extractor DateExtractor) *Service {
	if extractor == nil {
		extractor = HeuristicExtractor{}
	}
	return &Service{
		store:     store,
		calls:     callStore,
		extractor: extractor,
		clock:     time.Now,
	}
}

// SetClock overrides the timestamp source for deterministic tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

// HandleBookingIntent books an appointment from one intent. Intents whose
// transcript carries no usable date are dropped without error.
func (s *Service) HandleBookingIntent(ctx context.Context, in events.BookingIntent) error {
	log := logger.From(ctx)

	slot, ok := s.extractor.Extract(in.Transcript, s.clock())
	if !ok {
		log.Debug("booking intent without schedulable date", "call_id", in.CallID, "org_id", in.OrgID)
		return nil
	}

	appt, err := s.store.Create(ctx, Appointment{
		OrgID:       in.OrgID,
		CallID:      in.CallID,
		Title:       buildTitle(slot.Purpose, in.CustomerName),
		Description: fmt.Sprintf("Booked by the receptionist from a call with %s.", callerLabel(in)),
		StartsAt:    slot.StartsAt,
		EndsAt:      slot.EndsAt,
		Status:      "scheduled",
		Source:      SourceReceptionist,
	})
	if err != nil {
		return fmt.Errorf("appointments: create for call %s: %w", in.CallID, err)
	}

	s.markCallBooked(ctx, in, appt)

	log.Info("appointment booked",
		"appointment_id", appt.ID, "org_id", appt.OrgID, "call_id", appt.CallID,
		"starts_at", appt.StartsAt)
	return nil
}

// markCallBooked records the booking on the originating call. The appointment
// already exists at this point, so a call update failure is logged and not
// propagated.
func (s *Service) markCallBooked(ctx context.Context, in events.BookingIntent, appt Appointment) {
	log := logger.From(ctx)

	c, err := s.calls.FindByExternal(ctx, calls.Provider(in.Provider), in.ExternalID)
	if err != nil {
		log.Warn("booked call not found for backlink", "call_id", in.CallID, "err", err)
		return
	}

	c.Disposition = "booked"
	c.AppendEvent("appointment.created", s.clock().UTC(), map[string]any{
		"appointmentId": appt.ID,
		"startsAt":      appt.StartsAt.Format(time.RFC3339),
	})
	if _, err := s.calls.Update(ctx, c); err != nil {
		log.Warn("failed to backlink appointment onto call", "call_id", c.ID, "err", err)
	}
}

func buildTitle(purpose, customerName string) string {
	title := "Appointment"
	if purpose != "" {
		title = capitalize(purpose)
	}
	if customerName != "" {
		title += " - " + customerName
	}
	return title
}

func callerLabel(in events.BookingIntent) string {
	if in.CustomerName != "" {
		return in.CustomerName
	}
	if in.FromNumber != "" {
		return in.FromNumber
	}
	return "an unidentified caller"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
