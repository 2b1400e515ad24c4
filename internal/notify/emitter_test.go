package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/ws"
)

type fakeRecorder struct {
	inserted []*store.Notification
	err      error
}

func (f *fakeRecorder) InsertNotification(_ context.Context, n *store.Notification) error {
	if f.err != nil {
		return f.err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.inserted = append(f.inserted, n)
	return nil
}

type fakePusher struct {
	channels []string
	payloads []any
	err      error
}

func (f *fakePusher) Push(channel string, payload any) error {
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestEmit_RecordsThenPushes(t *testing.T) {
	rec := &fakeRecorder{}
	push := &fakePusher{}
	e := NewEmitter(rec, push, slog.Default())

	recipient := uuid.New()
	n := &store.Notification{
		RecipientID: recipient,
		Type:        "like",
		Title:       "New Like",
		Message:     "alice liked your post",
	}
	require.NoError(t, e.Emit(context.Background(), n))

	require.Len(t, rec.inserted, 1)
	require.Len(t, push.channels, 1)
	assert.Equal(t, ws.NotificationChannel(recipient.String()), push.channels[0])
}

func TestEmit_PushFailureDoesNotFailCaller(t *testing.T) {
	rec := &fakeRecorder{}
	push := &fakePusher{err: errors.New("channel gone")}
	e := NewEmitter(rec, push, slog.Default())

	n := &store.Notification{RecipientID: uuid.New(), Type: "follow", Title: "New Follower"}
	assert.NoError(t, e.Emit(context.Background(), n))
	assert.Len(t, rec.inserted, 1, "durable record must survive push failure")
}

func TestEmit_InsertFailureSkipsPush(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	push := &fakePusher{}
	e := NewEmitter(rec, push, slog.Default())

	n := &store.Notification{RecipientID: uuid.New(), Type: "like", Title: "New Like"}
	assert.Error(t, e.Emit(context.Background(), n))
	assert.Empty(t, push.channels, "no push without a durable record")
}
