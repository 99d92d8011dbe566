package events

import (
	"context"
	"sync"
	"time"

	"receptionist-platform/pkg/logger"
)

// BookingIntent is published when call analysis indicates the caller wanted to
// book an appointment. Consumers (appointment extraction) are best-effort: the
// publishing path never learns whether a handler succeeded.
type BookingIntent struct {
	CallID     string
	OrgID      string
	Provider   string
	ExternalID string

	Transcript   string
	CustomerName string
	FromNumber   string

	DetectedAt time.Time
}

// BookingIntentHandler consumes one BookingIntent. Errors are logged by the
// bus and never propagated to the publisher.
type BookingIntentHandler func(ctx context.Context, intent BookingIntent) error

// Bus is a minimal in-process dispatcher. Delivery is synchronous and
// in-subscription order. Publish has no error return, so a webhook's
// success can never depend on a subscriber.
type Bus struct {
	mu             sync.RWMutex
	bookingintents []BookingIntentHandler
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) SubscribeBookingIntent(h BookingIntentHandler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bookingintents = append(b.bookingintents, h)
}

func (b *Bus) PublishBookingIntent(ctx context.Context, intent BookingIntent) {
	b.mu.RLock()
	handlers := make([]BookingIntentHandler, len(b.bookingintents))
	copy(handlers, b.bookingintents)
	b.mu.RUnlock()

	log := logger.From(ctx)
	for _, h := range handlers {
		if err := h(ctx, intent); err != nil {
			log.Error("booking intent handler failed",
				"call_id", intent.CallID,
				"org_id", intent.OrgID,
				"err", err,
			)
		}
	}
}
