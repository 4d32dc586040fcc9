package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/memory"
	"eventscheduler/internal/services"
)

func TestInvitationController_Invite(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		host       string
		body       any
		seed       bool
		wantStatus int
		wantLink   string
	}{
		{
			name:       "configured origin",
			origin:     "https://app.example.com",
			body:       InviteRequest{Email: "bob@example.com"},
			wantStatus: http.StatusCreated,
			wantLink:   "https://app.example.com/signup?invitedBy=user-1&email=bob%40example.com",
		},
		{
			name:       "origin from request",
			host:       "localhost:8080",
			body:       InviteRequest{Email: "bob@example.com"},
			wantStatus: http.StatusCreated,
			wantLink:   "http://localhost:8080/signup?invitedBy=user-1&email=bob%40example.com",
		},
		{
			name:       "existing invitation",
			origin:     "https://app.example.com",
			body:       InviteRequest{Email: "bob@example.com"},
			seed:       true,
			wantStatus: http.StatusOK,
			wantLink:   "https://app.example.com/signup?invitedBy=user-1&email=bob%40example.com",
		},
		{
			name:       "invalid email",
			body:       InviteRequest{Email: "bob"},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
			if tt.seed {
				_, _, err := svc.Create(context.Background(), "bob@example.com", "user-1")
				require.NoError(t, err)
			}
			req := newAuthedRequest(http.MethodPost, "/invitations", tt.body, alice)
			if tt.host != "" {
				req.Host = tt.host
			}
			rr := httptest.NewRecorder()
			NewInvitationController(testLogger, svc, tt.origin).Invite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var result domain.InviteResult
			apiErr := decodeEnvelope(t, rr, &result)
			if tt.wantLink == "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, helpers.ErrCodeValidationFailed, apiErr.Code)
				assert.Equal(t, "Email is invalid", apiErr.Fields["email"])
				return
			}
			assert.Equal(t, tt.wantLink, result.Link)
			assert.Equal(t, !tt.seed, result.Created)
			assert.False(t, result.Emailed)

			overview, err := svc.Overview(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Len(t, overview.All, 1, "one invitation per email and inviter")
		})
	}
}

func TestInvitationController_ListInvitations(t *testing.T) {
	ctx := context.Background()
	svc := services.NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
	_, _, err := svc.Create(ctx, "bob@example.com", "user-1")
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "carol@example.com", "user-1")
	require.NoError(t, err)
	_, err = svc.MarkSignedUp(ctx, "carol@example.com", "user-3")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	NewInvitationController(testLogger, svc, "").ListInvitations(rr, newAuthedRequest(http.MethodGet, "/invitations", nil, alice))

	require.Equal(t, http.StatusOK, rr.Code)
	var overview domain.InvitationOverview
	require.Nil(t, decodeEnvelope(t, rr, &overview))
	assert.Len(t, overview.All, 2)
	require.Len(t, overview.SignedUp, 1)
	assert.Equal(t, "carol@example.com", overview.SignedUp[0].Email)
	require.Len(t, overview.Pending, 1)
	assert.Equal(t, "bob@example.com", overview.Pending[0].Email)
}

func TestInvitationController_StreamInvitations(t *testing.T) {
	svc := services.NewInvitationService(memory.NewInvitationRepository(), nil, time.Second)
	ctrl := NewInvitationController(testLogger, svc, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(middleware.SetIdentity(r.Context(), alice))
		ctrl.StreamInvitations(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/invitations/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	next := func(cond func(domain.InvitationOverview) bool) domain.InvitationOverview {
		for {
			ev := readSSE(t, reader)
			require.Equal(t, helpers.SSEEventInvitations, ev.name)
			var o domain.InvitationOverview
			require.NoError(t, json.Unmarshal([]byte(ev.data), &o))
			if cond(o) {
				return o
			}
		}
	}

	first := next(func(domain.InvitationOverview) bool { return true })
	assert.Empty(t, first.All)

	_, _, err = svc.Create(ctx, "bob@example.com", "user-1")
	require.NoError(t, err)
	o := next(func(o domain.InvitationOverview) bool { return len(o.All) == 1 })
	assert.Len(t, o.Pending, 1)

	_, err = svc.MarkSignedUp(ctx, "bob@example.com", "user-2")
	require.NoError(t, err)
	o = next(func(o domain.InvitationOverview) bool { return len(o.SignedUp) == 1 })
	assert.Empty(t, o.Pending)
}
