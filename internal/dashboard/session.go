// Package dashboard holds the server-side view model of a signed-in user's dashboard:
// the live event list fed by a store subscription and the event form.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"eventscheduler/internal/domain"
)

// State is the authentication/loading state of a Session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateLoading         State = "loading"
	StateReady           State = "ready"
)

// EventSource opens live event subscriptions. domain.EventService satisfies it.
type EventSource interface {
	Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error)
}

// View is a point-in-time rendering of a Session.
// swagger:model DashboardView
type View struct {
	State  State           `json:"state"`
	Events []*domain.Event `json:"events"`
	Total  int             `json:"total"`
	Error  string          `json:"error,omitempty"`
}

// Session owns the in-memory event list of one signed-in user. The list is only
// written by the subscription goroutine; readers derive filtered views from it.
type Session struct {
	logger *slog.Logger

	mu      sync.RWMutex
	state   State
	userID  string
	events  []*domain.Event
	err     error
	changed chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSession(logger *slog.Logger) *Session {
	done := make(chan struct{})
	close(done)
	return &Session{
		logger:  logger,
		state:   StateUnauthenticated,
		changed: make(chan struct{}),
		done:    done,
	}
}

// Start moves the session to loading and subscribes to userID's events. The first
// snapshot moves it to ready. Any previous subscription is stopped first.
func (s *Session) Start(ctx context.Context, source EventSource, userID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	s.Stop()

	subCtx, cancel := context.WithCancel(ctx)
	snapshots, err := source.Subscribe(subCtx, userID)
	if err != nil {
		cancel()
		return err
	}
	done := make(chan struct{})

	s.mu.Lock()
	s.state = StateLoading
	s.userID = userID
	s.events = nil
	s.err = nil
	s.cancel = cancel
	s.done = done
	s.notifyLocked()
	s.mu.Unlock()

	go s.run(snapshots, done)
	return nil
}

func (s *Session) run(snapshots <-chan domain.EventSnapshot, done chan struct{}) {
	defer close(done)
	for snap := range snapshots {
		s.apply(snap)
	}
}

func (s *Session) apply(snap domain.EventSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Err != nil {
		var storeErr *domain.StoreError
		if errors.As(snap.Err, &storeErr) {
			s.logger.Error("event subscription failed", "user_id", s.userID, "op", storeErr.Op, "err", storeErr.Err)
		} else {
			s.logger.Error("event subscription failed", "user_id", s.userID, "err", snap.Err)
		}
		s.err = snap.Err
		s.notifyLocked()
		return
	}
	s.events = snap.Events
	if s.events == nil {
		s.events = []*domain.Event{}
	}
	s.err = nil
	s.state = StateReady
	s.notifyLocked()
}

// Stop cancels the subscription, waits for it to drain and returns to unauthenticated.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.userID = ""
	s.events = nil
	s.err = nil
	s.notifyLocked()
	s.mu.Unlock()
}

// notifyLocked wakes every reader waiting on Changed.
func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Changed returns a channel that is closed on the next state change.
// Fetch it before reading the session to avoid missing an update.
func (s *Session) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Done is closed when the current subscription has ended.
func (s *Session) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Err returns the last subscription error, cleared by the next successful snapshot.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Events returns every event of the latest snapshot, newest first.
func (s *Session) Events() []*domain.Event {
	return s.Visible(domain.EventFilters{})
}

// Visible returns the events matching filters.
func (s *Session) Visible(filters domain.EventFilters) []*domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FilterEvents(s.events, filters)
}

// View renders the session with filters applied.
func (s *Session) View(filters domain.EventFilters) View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		State:  s.state,
		Events: domain.FilterEvents(s.events, filters),
		Total:  len(s.events),
	}
	if s.err != nil {
		v.Error = s.err.Error()
	}
	return v
}
