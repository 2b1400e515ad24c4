package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/ws"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	notifications, err := s.store.ListNotifications(r.Context(), Actor(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "notifications unavailable")
		return
	}
	if notifications == nil {
		notifications = []store.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), id, Actor(r)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "mark read failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkAllNotificationsRead(r.Context(), Actor(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "mark all read failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all marked read"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement belongs to the deployment's reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// notificationSocket upgrades the connection and attaches it to the
// actor's push channel. Everything after the upgrade is owned by the
// client pumps.
func (s *Server) notificationSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	channel := ws.NotificationChannel(Actor(r).String())
	ws.NewClient(s.hub, channel, conn).Start()
}
