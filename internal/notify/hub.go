// Package notify delivers human-readable mutation events to the UI shell.
// Delivery is fire-and-forget: the report core never waits on a subscriber
// and slow subscribers lose events rather than block mutations.
package notify

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vetreport-server/internal/domain"
)

// subscriberBuffer is the per-subscriber event backlog before drops begin.
const subscriberBuffer = 16

// Hub fans mutation events out to websocket subscribers and the log.
type Hub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[chan domain.Event]struct{}
}

// NewHub creates an event hub.
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// Notify implements domain.Notifier. Events are logged and broadcast; a
// subscriber whose buffer is full misses the event.
func (h *Hub) Notify(event domain.Event) {
	h.logger.WithFields(logrus.Fields{
		"action":      event.Action,
		"entity_kind": event.EntityKind,
		"entity_id":   event.EntityID,
		"title":       event.Title,
	}).Info(event.Message)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers an event channel. The caller must drain it and call
// the returned cancel func when done.
func (h *Hub) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeWS upgrades the request to a websocket and streams events as JSON
// until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade events connection")
		return
	}

	events, cancel := h.Subscribe()
	defer cancel()
	defer conn.Close()

	// Reader goroutine: the shell never sends payloads, but reads are
	// required to observe close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
