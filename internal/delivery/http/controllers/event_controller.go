package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventscheduler/internal/adapters/calendar"
	"eventscheduler/internal/dashboard"
	h "eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
)

// DefaultKeepAlive is the interval between comment lines on idle event streams.
const DefaultKeepAlive = 15 * time.Second

// CreateEventRequest is the request body for POST /events. Empty date, time and status
// take the form defaults: today, 09:00 and upcoming.
type CreateEventRequest struct {
	Title       string             `json:"title"`
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Status      domain.EventStatus `json:"status"`
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string             `json:"title"`
	Date        *string             `json:"date"`
	Time        *string             `json:"time"`
	Location    *string             `json:"location"`
	Description *string             `json:"description"`
	Status      *domain.EventStatus `json:"status"`
}

func (u UpdateEventRequest) patch() domain.EventPatch {
	return domain.EventPatch{
		Title:       u.Title,
		Date:        u.Date,
		Time:        u.Time,
		Location:    u.Location,
		Description: u.Description,
		Status:      u.Status,
	}
}

// EventListResponse is the response body for GET /events.
type EventListResponse struct {
	Events  []*domain.Event     `json:"events"`
	Filters domain.EventFilters `json:"filters"`
}

type EventController struct {
	Logger    *slog.Logger
	Service   domain.EventService
	KeepAlive time.Duration
	Now       func() time.Time
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:    logger,
		Service:   svc,
		KeepAlive: DefaultKeepAlive,
		Now:       time.Now,
	}
}

// ListEvents godoc
// @Summary List my events
// @Description Returns the authenticated user's events, newest first, filtered by the optional criteria. Title and location match case-insensitive substrings, status matches exactly and the date bounds are inclusive.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param title query string false "Title substring"
// @Param location query string false "Location substring"
// @Param date_from query string false "Earliest date (YYYY-MM-DD)"
// @Param date_to query string false "Latest date (YYYY-MM-DD)"
// @Param status query string false "upcoming, attending, maybe or declined"
// @Success 200 {object} helpers.APIResponse "data contains events and the applied filters"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filters := domain.ParseEventFilters(r.URL.Query())
	events, err := c.Service.ListEvents(r.Context(), userID, filters)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, EventListResponse{Events: events, Filters: filters})
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventID"), userID)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the authenticated user. Title, date, time and location are required; validation failures return field messages in error.fields.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	form := dashboard.NewEventForm(c.Now)
	form.OpenCreate()
	values := form.Values()
	values.Title = req.Title
	values.Location = req.Location
	values.Description = req.Description
	if req.Date != "" {
		values.Date = req.Date
	}
	if req.Time != "" {
		values.Time = req.Time
	}
	if req.Status != "" {
		values.Status = req.Status
	}
	form.Set(values)
	event, err := form.Submit(r.Context(), c.Service, userID)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Merges the provided fields into the event. Only the owner can update it.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	patch := req.patch()
	if err := dashboard.ValidatePatch(patch); err != nil {
		h.WriteError(w, err)
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("eventID"), userID, patch)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Permanently deletes the event. The call must be confirmed with confirm=true; otherwise nothing is deleted and 409 is returned.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: confirmation_required"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		h.WriteError(w, domain.ErrConfirmationRequired)
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("eventID"), userID); err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportEvents godoc
// @Summary Export my events as iCalendar
// @Description Returns the filtered event list as a text/calendar attachment.
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar feed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/export.ics [get]
func (c *EventController) ExportEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListEvents(r.Context(), userID, domain.ParseEventFilters(r.URL.Query()))
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	w.Header().Set("Content-Type", calendar.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	if err := calendar.Write(w, events, c.Now()); err != nil {
		c.Logger.ErrorContext(r.Context(), "export failed", "user_id", userID, "err", err)
	}
}

// StreamEvents godoc
// @Summary Live event list
// @Description Server-sent events. "state" carries the dashboard state, "events" the filtered list after every change and "error" a subscription failure. Browsers may pass the token as access_token.
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/stream [get]
func (c *EventController) StreamEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filters := domain.ParseEventFilters(r.URL.Query())

	sess := dashboard.NewSession(c.Logger)
	if err := sess.Start(r.Context(), c.Service, userID); err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	defer sess.Stop()

	sse, err := h.NewSSEWriter(w)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	ticker := time.NewTicker(c.KeepAlive)
	defer ticker.Stop()

	var last dashboard.View
	changed := sess.Changed()
	if err := pushView(sse, sess.View(filters), &last); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.Done():
			return
		case <-ticker.C:
			if err := sse.KeepAlive(); err != nil {
				return
			}
		case <-changed:
			changed = sess.Changed()
			if err := pushView(sse, sess.View(filters), &last); err != nil {
				return
			}
		}
	}
}

type stateMessage struct {
	State dashboard.State `json:"state"`
}

type errorMessage struct {
	Message string `json:"message"`
}

// pushView sends what changed between last and v: the state, a new error, or the event list.
func pushView(sse *h.SSEWriter, v dashboard.View, last *dashboard.View) error {
	defer func() { *last = v }()
	if v.State != last.State {
		if err := sse.Send(h.SSEEventState, stateMessage{State: v.State}); err != nil {
			return err
		}
	}
	if v.Error != "" {
		if v.Error == last.Error {
			return nil
		}
		return sse.Send(h.SSEEventError, errorMessage{Message: v.Error})
	}
	if v.State != dashboard.StateReady {
		return nil
	}
	return sse.Send(h.SSEEventEvents, v)
}
