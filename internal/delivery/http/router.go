package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventscheduler/internal/delivery/http/controllers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth        *controllers.AuthController
	Events      *controllers.EventController
	Invitations *controllers.InvitationController
	Summarize   *controllers.SummarizeController
	Health      http.HandlerFunc
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Invite links land here
	mux.HandleFunc("GET /signup", c.Auth.SignupForm)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/signin", c.Auth.SignIn)
	mux.HandleFunc("POST /auth/signout", auth(c.Auth.SignOut))
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))

	// Events
	mux.HandleFunc("GET /events", auth(c.Events.ListEvents))
	mux.HandleFunc("POST /events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /events/stream", auth(c.Events.StreamEvents))
	mux.HandleFunc("GET /events/export.ics", auth(c.Events.ExportEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Events.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Events.DeleteEvent))

	// Invitations
	mux.HandleFunc("POST /invitations", auth(c.Invitations.Invite))
	mux.HandleFunc("GET /invitations", auth(c.Invitations.ListInvitations))
	mux.HandleFunc("GET /invitations/stream", auth(c.Invitations.StreamInvitations))

	mux.HandleFunc("POST /summarize", auth(c.Summarize.Summarize))

	mux.HandleFunc("GET /healthz", c.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
