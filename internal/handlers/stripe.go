package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/events"
)

// StripeWebhook godoc
// @Summary Receive a Stripe webhook
// @Description Accepts a Stripe event signed with Stripe-Signature (t=<ts>,v1=<hex>)
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "t=<unix ts>,v1=<hex HMAC of ts.body>"
// @Param payload body object true "Stripe event"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} response.ErrorBody
// @Router /webhooks/stripe [post]
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := body(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid body", "")
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON", "")
		return
	}

	deliveryID := event.ID
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	eventType := string(event.Type)
	if eventType == "" {
		eventType = "unknown"
	}

	if h.accept(w, r, events.Event{
		Provider:   events.ProviderStripe,
		Type:       eventType,
		DeliveryID: deliveryID,
		Payload:    compactJSON(payload),
	}) {
		h.inspectStripeEvent(r, &event)
	}
}

// inspectStripeEvent logs the details operators look for on billing events.
func (h *Handlers) inspectStripeEvent(r *http.Request, event *stripe.Event) {
	if event.Data == nil {
		return
	}
	log := h.logger.WithContext(r.Context()).WithFields(logging.String("stripe_event_id", event.ID))

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Warn("Failed to decode checkout session", logging.Err(err))
			return
		}
		log.Info("Checkout session completed",
			logging.String("session_id", session.ID),
			logging.Bool("has_customer_email", session.CustomerEmail != ""),
			logging.Bool("has_subscription", session.Subscription != nil),
		)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Warn("Failed to decode subscription", logging.Err(err))
			return
		}
		msg := "Subscription updated"
		if event.Type == "customer.subscription.deleted" {
			msg = "Subscription cancelled"
		}
		log.Info(msg,
			logging.String("subscription_id", sub.ID),
			logging.String("subscription_status", string(sub.Status)),
			logging.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd),
		)
	}
}
