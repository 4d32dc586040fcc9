package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eventscheduler/internal/domain"
	"eventscheduler/internal/repository/live"
)

const eventColumns = `id, title, date, time, location, description, status, user_id, created_at`

type eventRepository struct {
	DB *sql.DB

	mu   sync.Mutex
	feed *live.Feed[domain.EventSnapshot]
}

// NewEventRepository returns a Postgres domain.EventRepository. Live subscriptions are fed
// by watcher; with a nil watcher subscribers only receive the initial snapshot.
func NewEventRepository(db *sql.DB, watcher *Watcher) domain.EventRepository {
	r := &eventRepository{
		DB:   db,
		feed: live.NewFeed[domain.EventSnapshot](),
	}
	watcher.register(eventsChannel, r)
	return r
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	if err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Time, &e.Location, &e.Description, &status, &e.UserID, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, date, time, location, description, status, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, e.Title, e.Date, e.Time, e.Location, e.Description, string(e.Status), e.UserID, e.CreatedAt).Scan(&e.ID)
	return domain.NewStoreError("create event", err)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("get event", err)
	}
	return e, nil
}

func (r *eventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, domain.NewStoreError("list events", err)
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, domain.NewStoreError("list events", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("list events", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	setClauses := []string{}
	args := []interface{}{}
	n := 1
	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Time != nil {
		add("time", *patch.Time)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if n == 1 {
		// Nothing to change; still report a missing document.
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), n)
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewStoreError("update event", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return domain.NewStoreError("delete event", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Subscribe registers the subscriber, then pushes the current result set. Later pushes are
// triggered by events_changed notifications for ownerID.
func (r *eventRepository) Subscribe(ctx context.Context, ownerID string) (<-chan domain.EventSnapshot, error) {
	ch := r.feed.Subscribe(ctx, ownerID)
	r.refresh(ctx, ownerID)
	return ch, nil
}

func (r *eventRepository) refresh(ctx context.Context, ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.feed.Has(ownerID) {
		return
	}
	events, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		r.feed.Publish(ownerID, domain.EventSnapshot{Err: err})
		return
	}
	r.feed.Publish(ownerID, domain.EventSnapshot{Events: events})
}

func (r *eventRepository) subscribedKeys() []string {
	return r.feed.Keys()
}
