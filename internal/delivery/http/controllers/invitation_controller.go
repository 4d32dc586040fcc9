package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
)

// InviteRequest is the request body for POST /invitations.
type InviteRequest struct {
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() error {
	verr := &domain.ValidationError{}
	h.RequireEmail(verr, "email", strings.TrimSpace(i.Email))
	return verr.OrNil()
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
	// PublicOrigin is the origin invite links point to. When empty it is derived from the request.
	PublicOrigin string
	KeepAlive    time.Duration
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService, publicOrigin string) *InvitationController {
	return &InvitationController{
		Logger:       logger,
		Service:      svc,
		PublicOrigin: publicOrigin,
		KeepAlive:    DefaultKeepAlive,
	}
}

func (c *InvitationController) origin(r *http.Request) string {
	if c.PublicOrigin != "" {
		return c.PublicOrigin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Invite godoc
// @Summary Invite someone
// @Description Generates the signup link for email and records the invitation unless one already exists for this inviter. With send_email the link is also emailed.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteRequest true "Invitee"
// @Success 201 {object} helpers.APIResponse "data contains link, invitation, created and emailed"
// @Success 200 {object} helpers.APIResponse "invitation already existed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [post]
func (c *InvitationController) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.Invite(r.Context(), identity, strings.TrimSpace(req.Email), c.origin(r), req.SendEmail)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	h.WriteJSONSuccess(w, status, result)
}

// ListInvitations godoc
// @Summary My invitations
// @Description Returns every invitation sent by the authenticated user, split into signed-up and pending.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains all, signed_up and pending"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	overview, err := c.Service.Overview(r.Context(), userID)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, overview)
}

// StreamInvitations godoc
// @Summary Live invitation overview
// @Description Server-sent events. "invitations" carries the overview after every change and "error" a subscription failure.
// @Tags invitations
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /invitations/stream [get]
func (c *InvitationController) StreamInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	snapshots, err := c.Service.Subscribe(r.Context(), userID)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	sse, err := h.NewSSEWriter(w)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	ticker := time.NewTicker(c.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sse.KeepAlive(); err != nil {
				return
			}
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if snap.Err != nil {
				c.Logger.ErrorContext(r.Context(), "invitation subscription failed", "user_id", userID, "err", snap.Err)
				err = sse.Send(h.SSEEventError, errorMessage{Message: snap.Err.Error()})
			} else {
				err = sse.Send(h.SSEEventInvitations, domain.NewInvitationOverview(snap.Invitations))
			}
			if err != nil {
				return
			}
		}
	}
}
