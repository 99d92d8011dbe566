package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/events"
	"receptionist-platform/pkg/logger"
)

var ErrInvalidEvent = errors.New("lifecycle: invalid event")

// BookingPublisher is the reconciler's only knowledge of downstream booking
// handling: it fires the domain event and moves on.
type BookingPublisher interface {
	PublishBookingIntent(ctx context.Context, intent events.BookingIntent)
}

// Reconciler merges lifecycle events into call records.
//
// Guarantees:
//   - Order tolerance: any event type may arrive first; a missing call is
//     created as a shell and later events fill it in. Both providers get the
//     same treatment.
//   - Serialization: deliveries for one (provider, external_id) are applied
//     one at a time via a keyed mutex, so concurrent merges cannot read stale
//     state and drop each other's fields.
//   - Idempotence: re-applying an event leaves terminal fields unchanged; an
//     optional Deduper additionally keeps redeliveries out of the event log.
//   - Exactly one persistence mutation per event (create or update).
type Reconciler struct {
	store calls.Store
	dedup Deduper // optional
	bus   BookingPublisher
	locks *keyedMutex
}

func NewReconciler(store calls.Store, dedup Deduper, bus BookingPublisher) *Reconciler {
	return &Reconciler{
		store: store,
		dedup: dedup,
		bus:   bus,
		locks: newKeyedMutex(),
	}
}

// Apply merges one event into its call. It either fully commits one store
// mutation or returns an error; there is no partial application.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	if err := ev.validate(); err != nil {
		return err
	}

	unlock := r.locks.lock(ev.lockKey())
	defer unlock()

	log := logger.From(ctx)

	if r.dedup != nil {
		first, err := r.dedup.FirstDelivery(ctx, ev.dedupKey())
		if err != nil {
			// Degrade to at-least-once; merges are idempotent.
			log.Warn("event dedup unavailable", "external_id", ev.ExternalID, "err", err)
		} else if !first {
			log.Debug("duplicate event delivery dropped",
				"provider", ev.Provider, "external_id", ev.ExternalID, "event", ev.Type)
			return nil
		}
	}

	c, created, err := r.findOrCreate(ctx, ev)
	if err != nil {
		return err
	}
	if created {
		// The create already recorded this event; nothing left to do.
		r.maybePublishBooking(ctx, c, ev)
		return nil
	}

	if err := applyEvent(&c, ev); err != nil {
		return err
	}
	c.AppendEvent(string(ev.Type), ev.Timestamp, ev.Raw)

	updated, err := r.store.Update(ctx, c)
	if err != nil {
		return fmt.Errorf("lifecycle: update %s/%s: %w", ev.Provider, ev.ExternalID, err)
	}

	r.maybePublishBooking(ctx, updated, ev)
	return nil
}

// findOrCreate returns the existing call for the event, or creates a shell
// with the event already applied. A lost create race re-reads the winner.
func (r *Reconciler) findOrCreate(ctx context.Context, ev Event) (calls.Call, bool, error) {
	c, err := r.store.FindByExternal(ctx, ev.Provider, ev.ExternalID)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, calls.ErrNotFound) {
		return calls.Call{}, false, err
	}

	shell := calls.Call{
		Provider:      ev.Provider,
		ExternalID:    ev.ExternalID,
		OrgID:         ev.OrgID,
		PhoneNumberID: ev.PhoneNumberID,
		FromNumber:    ev.FromNumber,
		ToNumber:      ev.ToNumber,
		Direction:     ev.Direction,
		Status:        calls.CallStatusRinging,
		StartedAt:     ev.Timestamp,
	}
	if shell.Direction == "" {
		shell.Direction = calls.DirectionInbound
	}
	if err := applyEvent(&shell, ev); err != nil {
		return calls.Call{}, false, err
	}
	shell.AppendEvent(string(ev.Type), ev.Timestamp, ev.Raw)

	created, err := r.store.Create(ctx, shell)
	if err == nil {
		return created, true, nil
	}
	if errors.Is(err, calls.ErrAlreadyExists) {
		// Another delivery won the create; merge into its row instead.
		existing, ferr := r.store.FindByExternal(ctx, ev.Provider, ev.ExternalID)
		if ferr != nil {
			return calls.Call{}, false, ferr
		}
		return existing, false, nil
	}
	return calls.Call{}, false, fmt.Errorf("lifecycle: create %s/%s: %w", ev.Provider, ev.ExternalID, err)
}

// applyEvent mutates c according to the per-event merge rules. New facts are
// merged in; facts recorded by earlier events survive unless the rule says
// the field replaces wholesale (tags, intent).
func applyEvent(c *calls.Call, ev Event) error {
	// Context hints fill blanks regardless of event type; they never
	// overwrite an established org or phone line.
	if c.OrgID == "" {
		c.OrgID = ev.OrgID
	}
	if c.PhoneNumberID == "" {
		c.PhoneNumberID = ev.PhoneNumberID
	}
	if c.FromNumber == "" {
		c.FromNumber = ev.FromNumber
	}
	if c.ToNumber == "" {
		c.ToNumber = ev.ToNumber
	}

	switch ev.Type {
	case EventStarted:
		c.Status = calls.CallStatusInProgress
		c.StartedAt = ev.Timestamp
		if ev.Direction != "" {
			c.Direction = ev.Direction
		}

	case EventEnded:
		status := calls.CallStatusCompleted
		if ev.Status != "" {
			if !calls.ValidStatus(ev.Status) {
				return fmt.Errorf("%w: status %q", ErrInvalidEvent, ev.Status)
			}
			status = ev.Status
		}
		c.Status = status
		if ev.DurationSeconds != nil {
			c.DurationSeconds = *ev.DurationSeconds
		} else {
			c.DurationSeconds = 0
		}
		ended := ev.Timestamp
		c.EndedAt = &ended
		c.Disposition = ev.Disposition
		if ev.Escalated != nil {
			c.Escalated = *ev.Escalated
		} else {
			c.Escalated = false
		}
		c.EscalatedTo = ev.EscalatedTo
		if ev.CostCents != nil {
			v := *ev.CostCents
			c.CostCents = &v
		}
		// Tags replace wholesale; an end event with no tags clears them.
		c.Tags = append([]string(nil), ev.Tags...)

	case EventRecordingReady:
		c.RecordingURL = ev.RecordingURL

	case EventTranscriptReady:
		c.Transcript = ev.Transcript
		c.TranscriptURL = ev.TranscriptURL
		c.Intent = append([]string(nil), ev.Intent...)

	case EventAnalyzed:
		if ev.Intent != nil {
			c.Intent = append([]string(nil), ev.Intent...)
		}
		if ev.Disposition != "" {
			c.Disposition = ev.Disposition
		}
		if ev.Escalated != nil {
			c.Escalated = *ev.Escalated
		}
		if ev.Transcript != "" && c.Transcript == "" {
			c.Transcript = ev.Transcript
		}

	case EventEscalated:
		c.Escalated = true
		c.EscalatedTo = ev.EscalatedTo
	}

	return nil
}

// maybePublishBooking fires the booking domain event after an analysis that
// indicates booking intent and carries a transcript. Fire-and-forget: the
// bus swallows subscriber failures.
func (r *Reconciler) maybePublishBooking(ctx context.Context, c calls.Call, ev Event) {
	if r.bus == nil || ev.Type != EventAnalyzed {
		return
	}
	if ev.Transcript == "" {
		return
	}
	if c.Disposition != "booked" && !containsTag(c.Intent, "book") {
		return
	}

	r.bus.PublishBookingIntent(ctx, events.BookingIntent{
		CallID:       c.ID,
		OrgID:        c.OrgID,
		Provider:     string(c.Provider),
		ExternalID:   c.ExternalID,
		Transcript:   ev.Transcript,
		CustomerName: stringFromAnalysis(ev.Analysis, "customer_name"),
		FromNumber:   c.FromNumber,
		DetectedAt:   ev.Timestamp,
	})
}

func containsTag(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func stringFromAnalysis(analysis map[string]any, key string) string {
	if analysis == nil {
		return ""
	}
	if s, ok := analysis[key].(string); ok {
		return s
	}
	return ""
}
