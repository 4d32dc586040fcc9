package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventscheduler/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if event.Status == "" {
		event.Status = domain.EventStatusUpcoming
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// owned loads the event and checks that ownerID owns it.
func (s *eventService) owned(ctx context.Context, id, ownerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.UserID != ownerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id, ownerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.owned(ctx, id, ownerID)
}

func (s *eventService) ListEvents(ctx context.Context, ownerID string, filters domain.EventFilters) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return []*domain.Event{}, nil
	}
	events, err := s.eventRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return domain.FilterEvents(events, filters), nil
}

// UpdateEvent merges patch into the event and returns the stored result.
func (s *eventService) UpdateEvent(ctx context.Context, id, ownerID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return event, nil
	}
	if err := s.eventRepo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	patch.Apply(event)
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// Subscribe opens a live subscription to the owner's events. An empty owner yields a
// single empty snapshot and a closed channel instead of a store subscription.
func (s *eventService) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	if ownerID == "" {
		ch := make(chan domain.EventSnapshot, 1)
		ch <- domain.EventSnapshot{Events: []*domain.Event{}}
		close(ch)
		return ch, nil
	}
	ch, err := s.eventRepo.Subscribe(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("subscribe events: %w", err)
	}
	return ch, nil
}
