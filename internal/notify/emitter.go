// Package notify creates durable notification records and fans them out
// to live websocket channels, best-effort.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/ws"
)

// Recorder is the durable half: the notifications table.
type Recorder interface {
	InsertNotification(ctx context.Context, n *store.Notification) error
}

// Pusher is the live half: the websocket hub.
type Pusher interface {
	Push(channel string, payload any) error
}

type Emitter struct {
	recorder Recorder
	pusher   Pusher
	logger   *slog.Logger
}

func NewEmitter(recorder Recorder, pusher Pusher, logger *slog.Logger) *Emitter {
	return &Emitter{recorder: recorder, pusher: pusher, logger: logger}
}

// pushPayload is the compact shape sent over the live channel.
type pushPayload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Sender    string         `json:"sender,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// Emit records the notification durably, then attempts a live push to
// the recipient's channel. The push happens only after the insert
// succeeds and its failure is logged, never returned: at-most-once,
// fire-and-forget.
func (e *Emitter) Emit(ctx context.Context, n *store.Notification) error {
	if err := e.recorder.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	payload := pushPayload{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.SenderID != nil {
		payload.Sender = n.SenderID.String()
	}

	if err := e.pusher.Push(ws.NotificationChannel(n.RecipientID.String()), payload); err != nil {
		e.logger.Warn("live push failed", "recipient", n.RecipientID, "error", err)
	}
	return nil
}
