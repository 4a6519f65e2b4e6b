package notify

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher is anything an emitter can hand an Event to for fan-out.
// Hub and RedisBridge both satisfy it.
type Publisher interface {
	Publish(event Event)
}

// Subscription is one consumer's feed of Events for a single run. Events
// arrives in declaration order; Unsubscribe stops delivery and closes
// Events once the hub has drained its registration.
type Subscription struct {
	runID  string
	Events chan Event
	hub    *Hub
}

// Unsubscribe removes the subscription from its Hub.
func (s *Subscription) Unsubscribe() {
	s.hub.unregister <- s
}

type broadcastMsg struct {
	runID string
	event Event
}

// Hub tracks subscriptions and fans out Events to the ones registered for
// a given run. Subscriptions are keyed by run id alone, and any
// Subscription consumer can register, not just the WebSocket Client.
type Hub struct {
	subs       map[*Subscription]bool
	byRunID    map[string]map[*Subscription]bool
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan broadcastMsg

	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewHub constructs a Hub. A nil logger falls back to the global zerolog
// logger.
func NewHub(logger *zerolog.Logger) *Hub {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Hub{
		subs:       make(map[*Subscription]bool),
		byRunID:    make(map[string]map[*Subscription]bool),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan broadcastMsg, 256),
		logger:     l,
	}
}

// Run drives the hub's event loop. Call it in a goroutine; it blocks until
// the caller stops feeding it; the hub carries no shutdown signal of its
// own and is expected to live for the whole process.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.addSub(s)
		case s := <-h.unregister:
			h.removeSub(s)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Subscribe registers a new feed of Events for runID and returns it. Call
// Unsubscribe when done to release resources.
func (h *Hub) Subscribe(runID string) *Subscription {
	s := &Subscription{runID: runID, Events: make(chan Event, sendBufferSize), hub: h}
	h.register <- s
	return s
}

func (h *Hub) addSub(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s] = true
	if h.byRunID[s.runID] == nil {
		h.byRunID[s.runID] = make(map[*Subscription]bool)
	}
	h.byRunID[s.runID][s] = true
	h.logger.Debug().Str("run_id", s.runID).Int("subscriptions", len(h.subs)).Msg("notify subscriber connected")
}

func (h *Hub) removeSub(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.Events)
	if subs, ok := h.byRunID[s.runID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.byRunID, s.runID)
		}
	}
}

// Publish fans an Event out to every subscription registered for
// event.RunID.
func (h *Hub) Publish(event Event) {
	h.broadcast <- broadcastMsg{runID: event.RunID, event: event}
}

func (h *Hub) deliver(msg broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.byRunID[msg.runID] {
		select {
		case s.Events <- msg.event:
		default:
			h.logger.Warn().Str("run_id", msg.runID).Msg("notify subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
