package handlers

import (
	"net/http"
	"strconv"

	"webhook-guard/internal/auth"
	apperrors "webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/response"
	"webhook-guard/internal/events"
)

// AdminStatusResponse is the body of GET /api/admin/status.
type AdminStatusResponse struct {
	Admin  auth.Status `json:"admin"`
	Events int         `json:"events"`
}

// EventsResponse is the body of GET /api/admin/events.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
}

// AdminStatus godoc
// @Summary Admin status
// @Description Returns admin configuration status and the number of recorded events
// @Tags admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} AdminStatusResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /api/admin/status [get]
func (h *Handlers) AdminStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.opts.Events.Count(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to count events", err)
		response.AppError(w, apperrors.InternalError("failed to count events", err))
		return
	}

	h.writeJSON(w, http.StatusOK, AdminStatusResponse{
		Admin:  h.opts.Admin.Status(),
		Events: count,
	})
}

// ListEvents godoc
// @Summary List received webhooks
// @Description Returns the most recent verified webhook events, newest first
// @Tags admin
// @Produce json
// @Security AdminToken
// @Param limit query int false "Maximum events to return (default 50, max 500)"
// @Success 200 {object} EventsResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /api/admin/events [get]
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "validation", "limit must be a number")
			return
		}
		limit = parsed
	}
	limit = events.ClampLimit(limit)

	list, err := h.opts.Events.List(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to list events", err)
		response.AppError(w, apperrors.InternalError("failed to list events", err))
		return
	}
	if list == nil {
		list = []events.Event{}
	}

	h.writeJSON(w, http.StatusOK, EventsResponse{Events: list, Count: len(list), Limit: limit})
}
