package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

// eventDoc is the stored shape of an event document.
type eventDoc struct {
	Title       string    `firestore:"title"`
	Date        string    `firestore:"date"`
	Time        string    `firestore:"time"`
	Location    string    `firestore:"location"`
	Description string    `firestore:"description"`
	Status      string    `firestore:"status"`
	UserID      string    `firestore:"userId"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func toEventDoc(e *domain.Event) eventDoc {
	return eventDoc{
		Title:       e.Title,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
		Description: e.Description,
		Status:      string(e.Status),
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

func (d eventDoc) toDomain(id string) *domain.Event {
	status := domain.EventStatus(d.Status)
	if status == "" {
		status = domain.EventStatusUpcoming
	}
	return &domain.Event{
		ID:          id,
		Title:       d.Title,
		Date:        d.Date,
		Time:        d.Time,
		Location:    d.Location,
		Description: d.Description,
		Status:      status,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt,
	}
}

// eventUpdates converts a patch into field paths; only set fields are written.
func eventUpdates(p domain.EventPatch) []firestore.Update {
	var updates []firestore.Update
	if p.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *p.Title})
	}
	if p.Date != nil {
		updates = append(updates, firestore.Update{Path: "date", Value: *p.Date})
	}
	if p.Time != nil {
		updates = append(updates, firestore.Update{Path: "time", Value: *p.Time})
	}
	if p.Location != nil {
		updates = append(updates, firestore.Update{Path: "location", Value: *p.Location})
	}
	if p.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *p.Description})
	}
	if p.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*p.Status)})
	}
	return updates
}

type EventRepository struct {
	Client *firestore.Client
}

func NewEventRepository(client *firestore.Client) domain.EventRepository {
	return &EventRepository{Client: client}
}

func (r *EventRepository) col() *firestore.CollectionRef {
	return r.Client.Collection(eventsCollection)
}

func (r *EventRepository) ownerQuery(ownerID string) firestore.Query {
	return r.col().Where("userId", "==", ownerID).OrderBy("createdAt", firestore.Desc)
}

func decodeEvent(doc *firestore.DocumentSnapshot) (*domain.Event, error) {
	var d eventDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return d.toDomain(doc.Ref.ID), nil
}

func decodeEvents(docs []*firestore.DocumentSnapshot) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEvent(doc)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	ref := r.col().NewDoc()
	if _, err := ref.Create(ctx, toEventDoc(e)); err != nil {
		return storeError("create event", err)
	}
	e.ID = ref.ID
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("get event", err)
	}
	e, err := decodeEvent(doc)
	if err != nil {
		return nil, storeError("get event", err)
	}
	return e, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	docs, err := r.ownerQuery(ownerID).Documents(ctx).GetAll()
	if err != nil {
		return nil, storeError("list events", err)
	}
	events, err := decodeEvents(docs)
	if err != nil {
		return nil, storeError("list events", err)
	}
	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	updates := eventUpdates(patch)
	if len(updates) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	_, err := r.col().Doc(id).Update(ctx, updates)
	return storeError("update event", err)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx, firestore.Exists)
	return storeError("delete event", err)
}

// Subscribe attaches a snapshot listener to the owner's query. The listener is detached
// when ctx is done; a listener failure is delivered as a final snapshot carrying Err.
func (r *EventRepository) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	out := make(chan domain.EventSnapshot, 1)
	it := r.ownerQuery(ownerID).Snapshots(ctx)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if !watchStopped(ctx, err) {
					live.Offer(out, domain.EventSnapshot{Err: storeError("watch events", err)})
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err == nil {
				var events []*domain.Event
				if events, err = decodeEvents(docs); err == nil {
					live.Offer(out, domain.EventSnapshot{Events: events})
					continue
				}
			}
			live.Offer(out, domain.EventSnapshot{Err: storeError("watch events", err)})
		}
	}()
	return out, nil
}
