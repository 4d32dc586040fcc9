package controllers

import (
	"log/slog"
	"net/http"

	h "eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/domain"
)

// SummarizeRequest is the request body for POST /summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummarizeResponse is the response body for POST /summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type SummarizeController struct {
	Logger     *slog.Logger
	Summarizer domain.Summarizer
}

func NewSummarizeController(logger *slog.Logger, s domain.Summarizer) *SummarizeController {
	return &SummarizeController{Logger: logger, Summarizer: s}
}

// Summarize godoc
// @Summary Summarize an event description
// @Description Shortens text with the configured completion API. Blank text is returned unchanged without calling the API once a key is configured.
// @Tags summarize
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SummarizeRequest true "Text to summarize"
// @Success 200 {object} helpers.APIResponse "data contains summary"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /summarize [post]
func (c *SummarizeController) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	summary, err := c.Summarizer.Summarize(r.Context(), req.Text)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, SummarizeResponse{Summary: summary})
}
