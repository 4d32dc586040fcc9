package controllers

import (
	"context"
	"net/http"
	"time"

	h "eventscheduler/internal/delivery/http/helpers"
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Healthz godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status is ok"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /healthz [get]
func Healthz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.PingContext(ctx); err != nil {
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeServiceUnavailable, "store unreachable")
				return
			}
		}
		h.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
