package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventscheduler/internal/delivery/http/helpers"
	"eventscheduler/internal/delivery/http/middleware"
	"eventscheduler/internal/domain"
)

var testNow = time.Date(2024, 4, 30, 10, 0, 0, 0, time.UTC)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// newAuthedRequest builds a request whose context carries the identity the auth middleware would set.
func newAuthedRequest(method, target string, body any, identity *domain.Identity) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if identity != nil {
		req = req.WithContext(middleware.SetIdentity(req.Context(), identity))
	}
	return req
}

// decodeEnvelope decodes the API envelope, unmarshalling data into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dest))
	}
	return envelope.Error
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	events      []*domain.Event
	getResult   *domain.Event
	updated     *domain.Event
	err         error
	lastCreated *domain.Event
	lastID      string
	lastOwner   string
	lastFilters domain.EventFilters
	lastPatch   domain.EventPatch
	deleted     bool
}

func (f *fakeEventService) CreateEvent(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = "evt-1"
	f.lastCreated = e
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id, ownerID string) (*domain.Event, error) {
	f.lastID, f.lastOwner = id, ownerID
	return f.getResult, f.err
}

func (f *fakeEventService) ListEvents(ctx context.Context, ownerID string, filters domain.EventFilters) ([]*domain.Event, error) {
	f.lastOwner, f.lastFilters = ownerID, filters
	if f.err != nil {
		return nil, f.err
	}
	return domain.FilterEvents(f.events, filters), nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, id, ownerID string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastID, f.lastOwner, f.lastPatch = id, ownerID, patch
	return f.updated, f.err
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id, ownerID string) error {
	f.lastID, f.lastOwner = id, ownerID
	if f.err != nil {
		return f.err
	}
	f.deleted = true
	return nil
}

func (f *fakeEventService) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	return nil, f.err
}
