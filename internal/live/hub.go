package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"booktracker/internal/model"
)

const clientBuffer = 16

// BookLoader returns every book a user owns.
type BookLoader interface {
	ListAll(ctx context.Context, userID string) ([]model.Book, error)
}

// Client is one open stream.
type Client struct {
	ID          string
	UserID      string
	Events      chan Event
	Done        chan struct{}
	ConnectedAt time.Time
}

// Hub tracks open streams and pushes a fresh snapshot to a user's streams whenever their books change.
type Hub struct {
	loader    BookLoader
	logger    *slog.Logger
	gauge     prometheus.Gauge
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

var _ Notifier = (*Hub)(nil)

// NewHub creates a hub. gauge may be nil.
func NewHub(loader BookLoader, logger *slog.Logger, gauge prometheus.Gauge, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		loader:    loader,
		logger:    logger,
		gauge:     gauge,
		heartbeat: heartbeat,
		clients:   make(map[string]*Client),
	}
}

// Start sends heartbeats until ctx is done, then closes every client.
func (h *Hub) Start(ctx context.Context) {
	h.logger.Info("live hub starting", slog.Duration("heartbeat", h.heartbeat))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.broadcast("", NewHeartbeatEvent())
		case <-ctx.Done():
			h.logger.Info("live hub stopping")
			h.closeAll()
			return
		}
	}
}

// Connect registers a stream for userID. After shutdown the returned client is already closed.
func (h *Hub) Connect(userID string) *Client {
	c := &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		Events:      make(chan Event, clientBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		// The hub is shutting down; hand back a stream that ends immediately.
		close(c.Done)
		close(c.Events)
		return c
	}
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.Inc()
	}
	h.logger.Info("live client connected",
		slog.String("client_id", c.ID),
		slog.String("user_id", userID),
		slog.Int("total_clients", total))
	return c
}

// Disconnect removes a client and closes its channels. Unknown ids are ignored.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	c, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, clientID)
	total := len(h.clients)
	h.mu.Unlock()

	close(c.Done)
	close(c.Events)
	if h.gauge != nil {
		h.gauge.Dec()
	}
	h.logger.Info("live client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(c.ConnectedAt)),
		slog.Int("total_clients", total))
}

// Snapshot loads the current list for userID.
func (h *Hub) Snapshot(ctx context.Context, userID string) (Event, error) {
	books, err := h.loader.ListAll(ctx, userID)
	if err != nil {
		return Event{}, fmt.Errorf("load snapshot: %w", err)
	}
	return NewSnapshotEvent(books), nil
}

// Notify pushes a fresh snapshot to every stream userID has open.
func (h *Hub) Notify(ctx context.Context, userID string) {
	if !h.HasClients(userID) {
		return
	}
	ev, err := h.Snapshot(ctx, userID)
	if err != nil {
		h.logger.Error("live snapshot failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}
	h.broadcast(userID, ev)
}

// NotifyAll pushes a fresh snapshot to every user with an open stream.
// The listener calls it after reconnecting, since changes made meanwhile were not delivered.
func (h *Hub) NotifyAll(ctx context.Context) {
	h.mu.RLock()
	users := make(map[string]struct{})
	for _, c := range h.clients {
		users[c.UserID] = struct{}{}
	}
	h.mu.RUnlock()

	for userID := range users {
		h.Notify(ctx, userID)
	}
}

// HasClients reports whether userID has at least one open stream.
func (h *Hub) HasClients(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// broadcast delivers ev to userID's clients, or to everyone when userID is empty.
// Sends never block; a full client buffer drops the event.
func (h *Hub) broadcast(userID string, ev Event) {
	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if userID != "" && c.UserID != userID {
			continue
		}
		select {
		case c.Events <- ev:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped event for slow client",
				slog.String("client_id", c.ID),
				slog.String("event_type", string(ev.Type)))
		}
	}

	if ev.Type != EventHeartbeat {
		h.logger.Debug("event broadcast",
			slog.String("event_type", string(ev.Type)),
			slog.String("user_id", userID),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("dropped", dropped)))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.closed = true
	h.mu.Unlock()

	for _, c := range clients {
		close(c.Done)
		close(c.Events)
		if h.gauge != nil {
			h.gauge.Dec()
		}
	}
}
