package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
	"webhook-guard/internal/events"
	"webhook-guard/internal/idempotency"
	"webhook-guard/internal/middleware"
)

// WebhookResponse is returned for accepted and duplicate deliveries.
type WebhookResponse struct {
	Status     string `json:"status"`
	EventID    string `json:"event_id,omitempty"`
	DeliveryID string `json:"delivery_id"`
}

// body returns the verified request bytes.
func body(r *http.Request) ([]byte, error) {
	if b, ok := middleware.BodyFromContext(r.Context()); ok {
		return b, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, nil
}

// accept dedupes, records and publishes a verified event and writes the
// response. It returns false when nothing was recorded.
func (h *Handlers) accept(w http.ResponseWriter, r *http.Request, event events.Event) bool {
	ctx := r.Context()
	log := h.logger.WithContext(ctx).WithFields(
		logging.Provider(event.Provider),
		logging.EventType(event.Type),
		logging.DeliveryID(event.DeliveryID),
	)

	key := idempotency.Key(event.Provider, event.DeliveryID)
	first, err := h.opts.Deliveries.MarkProcessed(ctx, key, h.opts.DeliveryTTL)
	if err != nil {
		// fail open: deliveries are processed while the store is unreachable
		log.Error("Delivery dedup check failed", err)
		first = true
	}
	if !first {
		log.Info("Duplicate webhook delivery ignored")
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "duplicate", DeliveryID: event.DeliveryID})
		return false
	}

	event.ID = uuid.NewString()
	event.ReceivedAt = h.now().UTC()

	if err := h.opts.Events.Save(ctx, event); err != nil {
		log.Error("Failed to record webhook event", err)
		// the sender retries after a 5xx; that retry must not look like a duplicate
		if relErr := h.opts.Deliveries.Release(ctx, key); relErr != nil {
			log.Error("Failed to release delivery key", relErr)
		}
		response.AppError(w, apperrors.InternalError("failed to record event", err))
		return false
	}

	if err := h.opts.Publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish webhook event", logging.Err(err))
	}

	log.Info("Webhook received", logging.EventID(event.ID))
	h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "received", EventID: event.ID, DeliveryID: event.DeliveryID})
	return true
}

func compactJSON(b []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return json.RawMessage(b)
	}
	return buf.Bytes()
}
