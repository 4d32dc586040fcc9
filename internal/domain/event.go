package domain

import (
	"context"
	"time"
)

// EventStatus is the attendance status a user sets on one of their events.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusAttending EventStatus = "attending"
	EventStatusMaybe     EventStatus = "maybe"
	EventStatusDeclined  EventStatus = "declined"
)

// EventStatuses lists every valid status in display order.
var EventStatuses = []EventStatus{
	EventStatusUpcoming,
	EventStatusAttending,
	EventStatusMaybe,
	EventStatusDeclined,
}

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Date and time layouts used by events. Dates compare lexicographically.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event is a personal calendar event owned by a single user.
// swagger:model Event
type Event struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Status      EventStatus `json:"status"`
	UserID      string      `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewEvent returns a new Event. ID is set by the repository on create.
func NewEvent(userID, title, date, clock, location, description string, status EventStatus, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Date:        date,
		Time:        clock,
		Location:    location,
		Description: description,
		Status:      status,
		UserID:      userID,
		CreatedAt:   createdAt,
	}
}

// EventPatch is a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title       *string      `json:"title,omitempty"`
	Date        *string      `json:"date,omitempty"`
	Time        *string      `json:"time,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *EventStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.Time == nil && p.Location == nil && p.Description == nil && p.Status == nil
}

// Apply merges the non-nil fields of p into e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}

// EventSnapshot is one push of a live event subscription: the complete current result set,
// or the error that interrupted it.
type EventSnapshot struct {
	Events []*Event
	Err    error
}

// EventRepository is the Event Store Adapter.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListByOwner returns the owner's events ordered by CreatedAt descending.
	ListByOwner(ctx context.Context, ownerID string) ([]*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) error
	Delete(ctx context.Context, id string) error
	// Subscribe pushes the owner's full event list on open and after every change until ctx is done.
	Subscribe(ctx context.Context, ownerID string) (<-chan EventSnapshot, error)
}

// EventService defines the business logic around a user's events.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id, ownerID string) (*Event, error)
	ListEvents(ctx context.Context, ownerID string, filters EventFilters) ([]*Event, error)
	UpdateEvent(ctx context.Context, id, ownerID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id, ownerID string) error
	Subscribe(ctx context.Context, ownerID string) (<-chan EventSnapshot, error)
}
