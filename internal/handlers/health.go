package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"webhook-guard/internal/common/logging"
)

const healthTimeout = 3 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string            `json:"status"`
	AdminConfigured  bool              `json:"admin_configured"`
	GitHubConfigured bool              `json:"github_configured"`
	StripeConfigured bool              `json:"stripe_configured"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports which secrets are configured and whether dependencies respond. Never exposes secret values.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:           "healthy",
		AdminConfigured:  h.opts.Admin.Configured(),
		GitHubConfigured: h.opts.GitHubConfigured,
		StripeConfigured: h.opts.StripeConfigured,
	}

	status := http.StatusOK
	if len(h.opts.Checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		names := make([]string, 0, len(h.opts.Checks))
		for name := range h.opts.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.opts.Checks[name](ctx); err != nil {
				h.logger.WithContext(ctx).Error("Health check failed", err, logging.String("dependency", name))
				resp.Dependencies[name] = "unhealthy"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "healthy"
		}
	}

	h.writeJSON(w, status, resp)
}
