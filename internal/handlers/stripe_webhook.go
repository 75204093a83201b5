package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/threadforge/threadforge/internal/cache"
	stripewebhook "github.com/threadforge/threadforge/internal/stripe"
)

// stripeWebhookIdempotencyTTL is how long webhook event IDs are kept for deduplication
const stripeWebhookIdempotencyTTL = 24 * time.Hour

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	event, err := stripewebhook.ReadWebhookEvent(r, h.config.StripeWebhookSecret)
	if err != nil {
		logger.Error("failed to read Stripe webhook payload", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	if event == nil || event.ID == "" {
		logger.Error("missing Stripe event ID")
		http.Error(w, "Missing event ID", http.StatusBadRequest)
		return
	}

	cacheKey := cache.WebhookKey("stripe", event.ID)
	if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
		logger.Info("webhook already processed", "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	processErr := h.handleStripeEvent(r, event)
	if processErr == nil {
		if err := h.cacheProvider.Set(ctx, cacheKey, "processed", stripeWebhookIdempotencyTTL); err != nil {
			logger.Error("failed to mark webhook as processed in cache", "error", err)
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	logger.Error("failed to process Stripe webhook", "error", processErr, "type", event.Type)
	http.Error(w, "Processing failed", http.StatusInternalServerError)
}

func (h *Handlers) handleStripeEvent(r *http.Request, event *stripeapi.Event) error {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	switch event.Type {
	case "checkout.session.completed":
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		paymentIntentID := ""
		if session.PaymentIntent != nil {
			paymentIntentID = session.PaymentIntent.ID
		}
		return h.orderService.ConfirmPayment(ctx, session.ID, paymentIntentID)
	default:
		logger.Debug("ignoring Stripe event", "type", event.Type)
		return nil
	}
}
