package websocket

import (
	"context"
	"sync"
)

// Event types sent to execution stream subscribers.
const (
	EventSnapshot          = "snapshot"
	EventExecutionStart    = "execution_start"
	EventStepStart         = "step_start"
	EventStepLog           = "step_log"
	EventStepComplete      = "step_complete"
	EventExecutionComplete = "execution_complete"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients by executionID
	clients map[string]map[*Client]bool

	// Outbound messages for subscribers
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// Message represents an execution event
type Message struct {
	ExecutionID string      `json:"executionId"`
	Type        string      `json:"type"`
	Payload     interface{} `json:"payload"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, closing
// every registered client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.executionID] == nil {
				h.clients[client.executionID] = make(map[*Client]bool)
			}
			h.clients[client.executionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.ExecutionID] {
				select {
				case client.send <- message:
				default:
					// Slow subscriber.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client and closes its send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.executionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.executionID)
	}
}

// Broadcast sends a message to all clients watching executionID
func (h *Hub) Broadcast(executionID string, msgType string, payload interface{}) {
	select {
	case h.broadcast <- &Message{ExecutionID: executionID, Type: msgType, Payload: payload}:
	case <-h.done:
	}
}

// Register registers a new client connection. It reports false when the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister unregisters a client connection
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of clients watching executionID.
func (h *Hub) Subscribers(executionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[executionID])
}
