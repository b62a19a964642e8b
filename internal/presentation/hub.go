// Package presentation publishes the read-only engine state over HTTP and websockets.
package presentation

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"go.uber.org/zap"
)

// Message types sent to websocket clients.
const (
	MessageSnapshot = "snapshot"
	MessageStats    = "stats"
)

const (
	clientBuffer    = 16
	broadcastBuffer = 64
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client is one websocket subscriber.
type client struct {
	send chan []byte
}

// Hub fans snapshots out to websocket clients. A client that cannot keep up is dropped.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu     sync.RWMutex
	latest map[string][]byte

	log *logger.Logger
}

// NewHub creates a hub. Server.Start runs its loop.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		mu:         sync.RWMutex{},
		latest:     make(map[string][]byte),
		log:        log,
	}
}

// Run is the hub event loop. It returns when ctx is done and closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)

			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}

			return
		case c := <-h.register:
			h.clients[c] = true

			for _, message := range h.latestMessages() {
				c.send <- message
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.log.Warn("Dropping slow websocket client")
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// add registers a client. It returns false once the hub has stopped.
func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove unregisters a client. It is a no-op once the hub has stopped.
func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishSnapshot sends a snapshot to every client. It never blocks.
func (h *Hub) PublishSnapshot(snapshot types.Snapshot) {
	h.publish(MessageSnapshot, snapshot)
}

// PublishStats sends session statistics to every client. It never blocks.
func (h *Hub) PublishStats(stats types.LiveTradeStats) {
	h.publish(MessageStats, stats)
}

// Latest returns the last published payload of the given message type.
func (h *Hub) Latest(messageType string) (json.RawMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	message, ok := h.latest[messageType]
	if !ok {
		return nil, false
	}

	var envelope Message
	if err := json.Unmarshal(message, &envelope); err != nil {
		return nil, false
	}

	return envelope.Data, true
}

func (h *Hub) publish(messageType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("Failed to encode presentation payload", zap.String("type", messageType), zap.Error(err))

		return
	}

	message, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		h.log.Warn("Failed to encode presentation message", zap.String("type", messageType), zap.Error(err))

		return
	}

	h.mu.Lock()
	h.latest[messageType] = message
	h.mu.Unlock()

	select {
	case h.broadcast <- message:
	default:
		h.log.Debug("Presentation broadcast full, dropping message", zap.String("type", messageType))
	}
}

// latestMessages returns the cached messages, snapshot first.
func (h *Hub) latestMessages() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	messages := make([][]byte, 0, len(h.latest))

	for _, messageType := range []string{MessageSnapshot, MessageStats} {
		if message, ok := h.latest[messageType]; ok {
			messages = append(messages, message)
		}
	}

	return messages
}
