package server

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Hub manages the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	log        logrus.FieldLogger
}

// NewHub creates a new Hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		log:        log,
	}
}

// Run starts the hub's event loop. It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer h.log.Info("hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.WithField("remoteAddr", client.remoteAddr()).Debug("client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.log.WithField("remoteAddr", client.remoteAddr()).Debug("client unregistered")
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// The client is not keeping up; drop it.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast sends a state update to all connected clients.
func (h *Hub) Broadcast(ctx context.Context, state PlaybackState) {
	payload, err := json.Marshal(state)
	if err != nil {
		h.log.WithError(err).Error("failed to encode playback state")
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	}
}

// closeAll closes all client send channels during shutdown.
func (h *Hub) closeAll() {
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
