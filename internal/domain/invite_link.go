package domain

import (
	"net/url"
	"strings"
)

// SignupPath is the entry point invite links point to.
const SignupPath = "/signup"

// Auth form modes.
const (
	AuthModeSignIn = "signin"
	AuthModeSignUp = "signup"
)

// NewInviteLink builds <origin>/signup?invitedBy=<inviterID>&email=<email>.
func NewInviteLink(origin, inviterID, email string) string {
	return strings.TrimSuffix(origin, "/") + SignupPath +
		"?invitedBy=" + escapeComponent(inviterID) +
		"&email=" + escapeComponent(email)
}

// escapeComponent percent-encodes s with %20 for spaces, like a browser's encodeURIComponent.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// SignupForm is the prefilled state of the auth form for an incoming link.
// swagger:model SignupForm
type SignupForm struct {
	Mode        string `json:"mode"`
	Email       string `json:"email"`
	EmailLocked bool   `json:"email_locked"`
	InvitedBy   string `json:"invited_by,omitempty"`
}

// ParseSignupQuery reads invitedBy and email from an invite link's query.
// An invitedBy value forces signup mode and locks the email field.
func ParseSignupQuery(q url.Values) SignupForm {
	form := SignupForm{
		Mode:  AuthModeSignIn,
		Email: strings.TrimSpace(q.Get("email")),
	}
	if invitedBy := strings.TrimSpace(q.Get("invitedBy")); invitedBy != "" {
		form.InvitedBy = invitedBy
		form.Mode = AuthModeSignUp
		form.EmailLocked = true
	}
	return form
}
