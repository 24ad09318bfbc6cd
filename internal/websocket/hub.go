package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/khairulh/notulen/internal/metrics"
)

// Subscriber receives outbound events. The concrete implementation is
// a connected Client; tests substitute their own.
type Subscriber interface {
	SendEvent(event interface{})
}

// EventHandler consumes validated inbound events. The session pipeline
// implements it.
type EventHandler interface {
	HandleEvent(sender Subscriber, event interface{})
}

// Hub maintains the session rooms: the sets of connections subscribed
// to each session's broadcasts. Multiple viewers may join one session;
// broadcasts fan out to all of them. Within one session, events are
// delivered in the order the pipeline issues them because the pipeline
// dispatches per session on a single worker.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub with no rooms. Metrics may be nil.
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[string]map[Subscriber]struct{}),
		logger:  logger,
		metrics: m,
	}
}

// Join subscribes a connection to a session's broadcasts.
func (h *Hub) Join(sessionID string, sub Subscriber) {
	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[sessionID] = room
	}
	room[sub] = struct{}{}
	rooms := len(h.rooms)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveRooms.Set(float64(rooms))
	}
	h.logger.Debug("Subscriber joined room", zap.String("sessionID", sessionID))
}

// Leave removes a connection from one session room.
func (h *Hub) Leave(sessionID string, sub Subscriber) {
	h.mu.Lock()
	h.removeLocked(sessionID, sub)
	rooms := len(h.rooms)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveRooms.Set(float64(rooms))
	}
}

// LeaveAll removes a connection from every room it joined. Called when
// the transport drops; server-side session state is left untouched.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	for sessionID := range h.rooms {
		h.removeLocked(sessionID, sub)
	}
	rooms := len(h.rooms)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveRooms.Set(float64(rooms))
	}
}

func (h *Hub) removeLocked(sessionID string, sub Subscriber) {
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
	}
}

// Broadcast fans an event out to every subscriber of a session. A
// session nobody watches is a no-op.
func (h *Hub) Broadcast(sessionID string, event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[sessionID] {
		sub.SendEvent(event)
	}
}

// RoomSize returns the number of subscribers for a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Marshal encodes an outbound event, logging instead of failing: a
// broadcast that cannot encode is dropped, never fatal.
func (h *Hub) marshal(event interface{}) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal outbound event", zap.Error(err))
		return nil, false
	}
	return payload, true
}
