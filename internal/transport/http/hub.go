package http

import (
	"sync"

	"guesswhat-trivia-service/internal/domain"
)

// outbound is the wire envelope for server-to-client messages.
type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one websocket connection's outbound queue. A single writer
// goroutine drains send, so writes to the conn are never concurrent.
type client struct {
	send chan outbound
}

func newClient() *client {
	return &client{send: make(chan outbound, 32)}
}

// push enqueues without blocking; when the queue is full the oldest message
// is dropped so a slow client cannot stall a broadcast.
func (c *client) push(msg outbound) {
	select {
	case c.send <- msg:
	default:
		select {
		case <-c.send:
		default:
		}
		c.send <- msg
	}
}

// Hub fans events out to every connection subscribed to a game. It is the
// app.Broadcaster implementation: per-game delivery order follows call
// order because Broadcast enqueues under the lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]bool)}
}

func (h *Hub) Subscribe(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[*client]bool)
	}
	h.rooms[gameID][c] = true
}

func (h *Hub) Unsubscribe(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[gameID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

// Broadcast implements app.Broadcaster.
func (h *Hub) Broadcast(gameID string, event domain.Event) {
	msg := outbound{Type: event.EventType(), Payload: event}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[gameID] {
		c.push(msg)
	}
}

// RoomSize reports how many connections a game currently has.
func (h *Hub) RoomSize(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}
