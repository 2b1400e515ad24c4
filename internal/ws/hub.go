// Package ws is the live-push layer: a hub of websocket clients grouped
// into channels keyed by recipient identity. Delivery is at-most-once
// and unordered relative to persisted state; a slow client drops
// messages rather than blocking the sender.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

// NotificationChannel names the push channel for a user's notifications.
func NotificationChannel(userID string) string {
	return "notifications:" + userID
}

// Register attaches a client to a channel.
func (h *Hub) Register(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	h.logger.Debug("ws client registered", "channel", channel)
}

// Unregister detaches a client and closes its send queue.
func (h *Hub) Unregister(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.channels[channel]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.channels, channel)
	}
	close(c.send)
	h.logger.Debug("ws client unregistered", "channel", channel)
}

// Push sends a JSON payload to every client on a channel. A full client
// queue drops the message for that client. An empty channel is not an
// error; there is simply nobody listening.
func (h *Hub) Push(channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channel] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws client queue full, dropping message", "channel", channel)
		}
	}
	return nil
}

// ChannelSize reports how many clients are attached to a channel.
func (h *Hub) ChannelSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
