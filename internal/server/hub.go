package server

import (
	"context"
	"sync"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Hub tracks connected websocket clients and broadcasts pipeline updates to
// all of them
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger logging.Logger
}

// NewHub creates an empty hub
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.WithFields(logging.Fields{"component": "ws_hub"}),
	}
}

// Run processes client registrations until the context is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client connected", logging.Fields{"clients": count})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Client disconnected", logging.Fields{"clients": count})
		}
	}
}

// Broadcast sends a message to every connected client without blocking.
// Clients that cannot keep up are disconnected rather than allowed to stall
// the pipeline handoff.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	var stalled []*Client
	for client := range h.clients {
		if !client.trySend(message) {
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.unregister <- client
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
}
