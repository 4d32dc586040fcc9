// Package memory is an in-process store with live subscriptions. It backs local
// development (STORE_DRIVER=memory) and end-to-end tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

type eventRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Event
	seq  map[string]int
	next int
	feed *live.Feed[domain.EventSnapshot]
}

// NewEventRepository returns an empty in-memory domain.EventRepository.
func NewEventRepository() domain.EventRepository {
	return &eventRepository{
		byID: make(map[string]*domain.Event),
		seq:  make(map[string]int),
		feed: live.NewFeed[domain.EventSnapshot](),
	}
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("create event", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.NewString()
	r.byID[e.ID] = cloneEvent(e)
	r.next++
	r.seq[e.ID] = r.next
	r.publishLocked(e.UserID)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(ownerID), nil
}

func (r *eventRepository) listLocked(ownerID string) []*domain.Event {
	out := make([]*domain.Event, 0)
	for _, e := range r.byID {
		if e.UserID == ownerID {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(e)
	r.publishLocked(e.UserID)
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.seq, id)
	r.publishLocked(e.UserID)
	return nil
}

func (r *eventRepository) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch := r.feed.Subscribe(ctx, ownerID)
	r.feed.Publish(ownerID, domain.EventSnapshot{Events: r.listLocked(ownerID)})
	return ch, nil
}

func (r *eventRepository) publishLocked(ownerID string) {
	if !r.feed.Has(ownerID) {
		return
	}
	r.feed.Publish(ownerID, domain.EventSnapshot{Events: r.listLocked(ownerID)})
}
