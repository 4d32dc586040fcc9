package postgres

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

// Notification channels raised by the triggers in migrations/0002_notify_triggers.sql.
// The payload is the owner key whose result set changed.
const (
	eventsChannel      = "events_changed"
	invitationsChannel = "invitations_changed"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
	refreshTimeout       = 5 * time.Second
)

// refresher re-reads the result set for a key and pushes it to that key's subscribers.
type refresher interface {
	refresh(ctx context.Context, key string)
	subscribedKeys() []string
}

// Watcher turns Postgres NOTIFY messages into refreshed snapshots for live subscribers.
type Watcher struct {
	notify <-chan *pq.Notification
	listen func(channel string) error
	ping   func() error
	close  func() error
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]refresher
}

// NewWatcher returns a Watcher backed by a dedicated pq.Listener connection to dsn.
func NewWatcher(dsn string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	listener := pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("postgres listener", "event", int(ev), "err", err)
		}
	})
	return &Watcher{
		notify:   listener.Notify,
		listen:   listener.Listen,
		ping:     listener.Ping,
		close:    listener.Close,
		logger:   logger,
		handlers: make(map[string]refresher),
	}
}

func (w *Watcher) register(channel string, r refresher) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[channel] = r
}

func (w *Watcher) handler(channel string) refresher {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handlers[channel]
}

// Run listens on every registered channel and dispatches notifications until ctx is done.
// A nil notification means the connection was re-established and notifications may have
// been lost, so every subscribed key of every channel is refreshed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	channels := make([]string, 0, len(w.handlers))
	for ch := range w.handlers {
		channels = append(channels, ch)
	}
	w.mu.Unlock()
	for _, ch := range channels {
		if err := w.listen(ch); err != nil {
			_ = w.close()
			return err
		}
	}

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return w.close()
		case n, ok := <-w.notify:
			if !ok {
				return nil
			}
			if n == nil {
				w.logger.Info("postgres listener reconnected, refreshing subscriptions")
				w.refreshAll(ctx)
				continue
			}
			if h := w.handler(n.Channel); h != nil {
				w.refreshKey(ctx, h, n.Extra)
			}
		case <-ticker.C:
			if err := w.ping(); err != nil {
				w.logger.Warn("postgres listener ping failed", "err", err)
			}
		}
	}
}

func (w *Watcher) refreshAll(ctx context.Context) {
	w.mu.Lock()
	handlers := make([]refresher, 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()
	for _, h := range handlers {
		for _, key := range h.subscribedKeys() {
			w.refreshKey(ctx, h, key)
		}
	}
}

func (w *Watcher) refreshKey(ctx context.Context, h refresher, key string) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	h.refresh(ctx, key)
}
