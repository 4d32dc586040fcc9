package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteLink(t *testing.T) {
	tests := []struct {
		name      string
		origin    string
		inviterID string
		email     string
		want      string
	}{
		{"plain", "https://app.example.com", "u1", "a@b.com", "https://app.example.com/signup?invitedBy=u1&email=a%40b.com"},
		{"trailing slash on origin", "https://app.example.com/", "u1", "a@b.com", "https://app.example.com/signup?invitedBy=u1&email=a%40b.com"},
		{"plus and space are encoded", "http://localhost:5173", "u 2", "first+tag@b.com", "http://localhost:5173/signup?invitedBy=u%202&email=first%2Btag%40b.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewInviteLink(tt.origin, tt.inviterID, tt.email))
		})
	}
}

func TestInviteLink_RoundTrip(t *testing.T) {
	link := NewInviteLink("https://app.example.com", "u1", "a@b.com")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, SignupPath, u.Path)

	form := ParseSignupQuery(u.Query())
	assert.Equal(t, "u1", form.InvitedBy)
	assert.Equal(t, "a@b.com", form.Email)
	assert.Equal(t, AuthModeSignUp, form.Mode)
	assert.True(t, form.EmailLocked)
}

func TestParseSignupQuery_WithoutInviter(t *testing.T) {
	q := url.Values{}
	q.Set("email", "someone@example.com")

	form := ParseSignupQuery(q)
	assert.Equal(t, AuthModeSignIn, form.Mode)
	assert.Equal(t, "someone@example.com", form.Email)
	assert.False(t, form.EmailLocked)
	assert.Empty(t, form.InvitedBy)
}
