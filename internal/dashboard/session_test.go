package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/memory"
	"eventscheduler/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// chanSource hands out a channel controlled by the test.
type chanSource struct {
	ch        chan domain.EventSnapshot
	err       error
	lastOwner string
}

func (c *chanSource) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	c.lastOwner = ownerID
	if c.err != nil {
		return nil, c.err
	}
	out := make(chan domain.EventSnapshot)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-c.ch:
				if !ok {
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// waitFor blocks until cond holds, re-checking after every session change.
func waitFor(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		changed := s.Changed()
		if cond() {
			return
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatal("timed out waiting for session change")
		}
	}
}

func TestSession_StateTransitions(t *testing.T) {
	src := &chanSource{ch: make(chan domain.EventSnapshot)}
	s := NewSession(testLogger)
	assert.Equal(t, StateUnauthenticated, s.State())

	require.NoError(t, s.Start(context.Background(), src, "u1"))
	assert.Equal(t, StateLoading, s.State())
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "u1", src.lastOwner)

	src.ch <- domain.EventSnapshot{Events: []*domain.Event{{ID: "e1", Title: "Standup"}}}
	waitFor(t, s, func() bool { return s.State() == StateReady })
	require.Len(t, s.Events(), 1)

	s.Stop()
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Empty(t, s.UserID())
	assert.Empty(t, s.Events())
	select {
	case <-s.Done():
	default:
		t.Fatal("subscription should be finished after Stop")
	}
}

func TestSession_StartRequiresUser(t *testing.T) {
	s := NewSession(testLogger)
	err := s.Start(context.Background(), &chanSource{}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestSession_StartSubscribeError(t *testing.T) {
	s := NewSession(testLogger)
	wantErr := domain.NewStoreError("subscribe events", errors.New("permission denied"))
	err := s.Start(context.Background(), &chanSource{err: wantErr}, "u1")
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestSession_SubscriptionErrorKeepsLastList(t *testing.T) {
	src := &chanSource{ch: make(chan domain.EventSnapshot)}
	s := NewSession(testLogger)
	require.NoError(t, s.Start(context.Background(), src, "u1"))
	defer s.Stop()

	src.ch <- domain.EventSnapshot{Events: []*domain.Event{{ID: "e1", Title: "Standup"}}}
	waitFor(t, s, func() bool { return s.State() == StateReady })

	src.ch <- domain.EventSnapshot{Err: domain.NewStoreError("watch events", errors.New("unavailable"))}
	waitFor(t, s, func() bool { return s.Err() != nil })

	view := s.View(domain.EventFilters{})
	assert.Equal(t, StateReady, view.State)
	assert.Len(t, view.Events, 1)
	assert.Contains(t, view.Error, "unavailable")

	src.ch <- domain.EventSnapshot{Events: []*domain.Event{}}
	waitFor(t, s, func() bool { return s.Err() == nil })
	assert.Empty(t, s.Events())
}

func TestSession_ParentContextEndsSubscription(t *testing.T) {
	src := &chanSource{ch: make(chan domain.EventSnapshot)}
	s := NewSession(testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, src, "u1"))
	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end with its context")
	}
}

func TestSession_View(t *testing.T) {
	src := &chanSource{ch: make(chan domain.EventSnapshot)}
	s := NewSession(testLogger)
	require.NoError(t, s.Start(context.Background(), src, "u1"))
	defer s.Stop()

	src.ch <- domain.EventSnapshot{Events: []*domain.Event{
		{ID: "e2", Title: "Retro", Location: "Room 4", Status: domain.EventStatusAttending, Date: "2024-05-03"},
		{ID: "e1", Title: "Standup", Location: "Zoom", Status: domain.EventStatusUpcoming, Date: "2024-05-01"},
	}}
	waitFor(t, s, func() bool { return s.State() == StateReady })

	view := s.View(domain.EventFilters{Location: "zoom"})
	assert.Equal(t, 2, view.Total)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "e1", view.Events[0].ID)
	assert.Empty(t, view.Error)
}

// A user creates an event, filters it out, clears the filter and deletes it,
// with every list observed through the live subscription.
func TestDashboard_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := services.NewEventService(memory.NewEventRepository(), 2*time.Second)
	s := NewSession(testLogger)
	require.NoError(t, s.Start(ctx, svc, "u1"))
	defer s.Stop()
	waitFor(t, s, func() bool { return s.State() == StateReady })
	assert.Empty(t, s.Events())

	form := NewEventForm(func() time.Time { return time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC) })
	form.OpenCreate()
	form.Set(FormValues{Title: "Standup", Date: "2024-05-01", Time: "09:00", Location: "Zoom", Status: domain.EventStatusUpcoming})
	created, err := form.Submit(ctx, svc, "u1")
	require.NoError(t, err)
	assert.Equal(t, FormClosed, form.Mode())

	waitFor(t, s, func() bool { return len(s.Events()) == 1 })
	got := s.Events()[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Standup", got.Title)

	assert.Empty(t, s.Visible(domain.EventFilters{Status: string(domain.EventStatusAttending)}))
	assert.Len(t, s.Visible(domain.EventFilters{}), 1)

	require.NoError(t, svc.DeleteEvent(ctx, created.ID, "u1"))
	waitFor(t, s, func() bool { return len(s.Events()) == 0 })
}
