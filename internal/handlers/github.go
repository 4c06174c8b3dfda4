package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"webhook-guard/internal/events"
)

// GitHub delivery headers.
const (
	HeaderGitHubEvent    = "X-GitHub-Event"
	HeaderGitHubDelivery = "X-GitHub-Delivery"
)

// GitHubWebhook godoc
// @Summary Receive a GitHub webhook
// @Description Accepts a GitHub delivery signed with X-Hub-Signature-256. Ping events are answered with pong.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Hub-Signature-256 header string true "sha256=<hex HMAC of the body>"
// @Param X-GitHub-Event header string false "Event type"
// @Param X-GitHub-Delivery header string false "Delivery ID"
// @Param payload body object true "Webhook payload"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /webhooks/github [post]
func (h *Handlers) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := body(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid body", "")
		return
	}
	if !json.Valid(payload) {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON", "")
		return
	}

	eventType := r.Header.Get(HeaderGitHubEvent)
	if eventType == "" {
		eventType = "unknown"
	}
	if eventType == "ping" {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	}

	deliveryID := r.Header.Get(HeaderGitHubDelivery)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	h.accept(w, r, events.Event{
		Provider:   events.ProviderGitHub,
		Type:       eventType,
		DeliveryID: deliveryID,
		Payload:    compactJSON(payload),
	})
}
