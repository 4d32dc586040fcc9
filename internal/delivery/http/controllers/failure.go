package controllers

import (
	"log/slog"
	"net/http"

	h "eventscheduler/internal/delivery/http/helpers"
)

// writeFailure writes the error envelope for err. Server-side failures are logged;
// client errors are not.
func writeFailure(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, _ := h.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	h.WriteError(w, err)
}
