package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
)

// SignUpRequest is the request body for POST /auth/signup.
// invited_by is taken from the invite link when the user arrived through one.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	InvitedBy string `json:"invited_by"`
}

// Validate implements Validator. Password rules are left to the identity provider.
func (s SignUpRequest) Validate() error {
	verr := &domain.ValidationError{}
	h.RequireEmail(verr, "email", strings.TrimSpace(s.Email))
	if s.Password == "" {
		verr.Add("password", "Password is required")
	}
	return verr.OrNil()
}

// SignInRequest is the request body for POST /auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l SignInRequest) Validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(l.Email) == "" {
		verr.Add("email", "Email is required")
	}
	if l.Password == "" {
		verr.Add("password", "Password is required")
	}
	return verr.OrNil()
}

// SessionResponse is the response body for a successful sign-in or sign-up.
type SessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

func newSessionResponse(id *domain.Identity) SessionResponse {
	return SessionResponse{Token: id.Token, TokenType: "Bearer", UserID: id.UserID, Email: id.Email}
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AccountService
}

func NewAuthController(logger *slog.Logger, svc domain.AccountService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// SignupForm godoc
// @Summary Prefill the auth form from an invite link
// @Description Parses invitedBy and email from the query. When invitedBy is present the form is forced into signup mode and the email is locked.
// @Tags auth
// @Produce json
// @Param invitedBy query string false "Inviter user ID"
// @Param email query string false "Invitee email"
// @Success 200 {object} helpers.APIResponse "data contains mode, email, email_locked, invited_by"
// @Router /signup [get]
func (c *AuthController) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.WriteJSONSuccess(w, http.StatusOK, domain.ParseSignupQuery(r.URL.Query()))
}

// SignUp godoc
// @Summary Sign up a new user
// @Description Creates an account with the identity provider, writes the user profile and marks matching invitations as signed up. Provider errors are returned verbatim with error.code auth_failed.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Sign-up data"
// @Success 201 {object} helpers.APIResponse "data contains token, token_type, user_id and email"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: auth_failed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, err := c.Service.SignUp(r.Context(), strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.InvitedBy))
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, newSessionResponse(identity))
}

// SignIn godoc
// @Summary Sign in
// @Description Authenticate with email and password. Returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignInRequest true "Credentials"
// @Success 200 {object} helpers.APIResponse "data contains token, token_type, user_id and email"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: auth_failed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signin [post]
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, err := c.Service.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, newSessionResponse(identity))
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the bearer token used for this request.
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/signout [post]
func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.SignOut(r.Context(), identity.Token); err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Description Returns the profile of the authenticated user.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the user profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.Me(r.Context(), userID)
	if err != nil {
		writeFailure(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}
