package webhooks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/lifecycle"
	"receptionist-platform/internal/numbers"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// EventApplier is the dispatch layer's only knowledge of the reconciler.
type EventApplier interface {
	Apply(ctx context.Context, ev lifecycle.Event) error
}

// Handlers receives provider webhooks, authenticates them, resolves tenant
// context, and forwards the normalized event to the reconciler.
//
// No business logic here: merge decisions live in the reconciler, scheduling
// in the appointments service.
//
// Authentication is mandatory on both endpoints. An unauthenticated delivery
// is rejected with 401 before any context resolution or parsing happens.
type Handlers struct {
	Reconciler EventApplier
	Numbers    numbers.Store
	Audit      *audit.Service

	// VoiceSigningSecret verifies the x-retell-signature HMAC on voice
	// deliveries; AutomationSharedSecret matches the x-webhook-secret header
	// on automation deliveries.
	VoiceSigningSecret     string
	AutomationSharedSecret string

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// HandleAutomationEvent ingests one automation-provider delivery.
//
// Context resolution is strict on this path: the dialed number (body toNumber,
// overridable by the x-phone-number header) must map to an active org number
// or the delivery is rejected with 404 and nothing is mutated.
func (h Handlers) HandleAutomationEvent(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !VerifySharedSecret(h.AutomationSharedSecret, c.GetHeader("x-webhook-secret")) {
		log.Warn("automation webhook rejected", "ip", c.ClientIP())
		h.auditReject(c, string(calls.ProviderAutomation), "invalid shared secret")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ev, known, err := ParseAutomationEvent(body, h.now())
	if err != nil {
		log.Error("automation webhook processing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !known {
		// Forward-compatible no-op: acknowledge so the provider stops retrying.
		log.Info("unknown automation event dropped", "ip", c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	lookupNumber := ev.ToNumber
	if hdr := c.GetHeader("x-phone-number"); hdr != "" {
		lookupNumber = hdr
	}
	n, err := h.Numbers.FindActiveByNumber(c.Request.Context(), lookupNumber)
	if err != nil {
		if errors.Is(err, numbers.ErrNotFound) {
			log.Warn("automation webhook for unknown number", "to", lookupNumber, "external_id", ev.ExternalID)
			if h.Audit != nil {
				if aerr := h.Audit.LogContextMiss(c.Request.Context(), string(calls.ProviderAutomation), lookupNumber, ev.ExternalID); aerr != nil {
					log.Warn("audit append failed", "err", aerr)
				}
			}
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "phone number not found"})
			return
		}
		log.Error("number lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ev.OrgID = n.OrgID
	ev.PhoneNumberID = n.ID

	h.apply(c, ev)
}

// HandleVoiceEvent ingests one voice-provider delivery.
//
// The voice provider only identifies the call, not the line, so org context
// resolution is best-effort here: a resolvable to_number enriches the event,
// an unresolvable one does not reject it.
func (h Handlers) HandleVoiceEvent(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !VerifySignature(h.VoiceSigningSecret, body, c.GetHeader("x-retell-signature")) {
		log.Warn("voice webhook rejected", "ip", c.ClientIP())
		h.auditReject(c, string(calls.ProviderVoice), "invalid signature")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ev, known, err := ParseVoiceEvent(body, h.now())
	if err != nil {
		log.Error("voice webhook processing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !known {
		log.Info("unknown voice event dropped", "ip", c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if ev.ToNumber != "" && h.Numbers != nil {
		if n, err := h.Numbers.FindActiveByNumber(c.Request.Context(), ev.ToNumber); err == nil {
			ev.OrgID = n.OrgID
			ev.PhoneNumberID = n.ID
		}
	}

	h.apply(c, ev)
}

func (h Handlers) apply(c *gin.Context, ev lifecycle.Event) {
	log := logger.FromGin(c)

	if err := h.Reconciler.Apply(c.Request.Context(), ev); err != nil {
		log.Error("event application failed",
			"provider", ev.Provider, "external_id", ev.ExternalID, "event", ev.Type, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) auditReject(c *gin.Context, provider, reason string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogWebhookRejected(c.Request.Context(), provider, c.ClientIP(), reason); err != nil {
		logger.FromGin(c).Warn("audit append failed", "err", err)
	}
}
