package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
	"github.com/truetribe/backend/internal/ws"
)

// ActionRecorder funnels manual trust actions through the same path the
// dispatcher uses, so a recompute always follows.
type ActionRecorder interface {
	RecordAction(ctx context.Context, userID uuid.UUID, action trust.ActionType, change float64, description string) (*store.TrustAction, error)
}

// BadgeAwarder grants badges with their one-time bonus.
type BadgeAwarder interface {
	Award(ctx context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error)
}

// LeaderboardCache is the optional Redis read cache.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]store.LeaderboardEntry, bool)
	Set(ctx context.Context, entries []store.LeaderboardEntry)
}

type Server struct {
	router    *chi.Mux
	port      int
	store     *store.Store
	publisher events.Publisher
	recorder  ActionRecorder
	awarder   BadgeAwarder
	board     LeaderboardCache
	hub       *ws.Hub
	jwtSecret []byte
	logger    *slog.Logger
}

type Config struct {
	Port      int
	Store     *store.Store
	Publisher events.Publisher
	Recorder  ActionRecorder
	Awarder   BadgeAwarder
	Board     LeaderboardCache // nil disables caching
	Hub       *ws.Hub
	JWTSecret []byte
	Logger    *slog.Logger
}

func NewServer(cfg Config) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      cfg.Port,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		recorder:  cfg.Recorder,
		awarder:   cfg.Awarder,
		board:     cfg.Board,
		hub:       cfg.Hub,
		jwtSecret: cfg.JWTSecret,
		logger:    cfg.Logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(s.jwtSecret))

		r.Route("/trust", func(r chi.Router) {
			r.Get("/score", s.getOwnTrustScore)
			r.Get("/score/{userID}", s.getTrustScore)
			r.Post("/action", s.recordTrustAction)
			r.Get("/actions", s.listTrustActions)
			r.Get("/leaderboard", s.leaderboard)
			r.Get("/badges", s.listOwnBadges)
			r.Get("/badges/{username}", s.listBadges)
			r.Post("/badges/{username}", s.awardBadge)
			r.Get("/reports", s.listReports)
			r.Post("/reports", s.createReport)
			r.Post("/reports/{reportID}/verify", s.verifyScamReport)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.createPost)
			r.Get("/{postID}", s.getPost)
			r.Delete("/{postID}", s.deletePost)
			r.Post("/{postID}/like", s.likePost)
			r.Get("/{postID}/comments", s.listComments)
			r.Post("/{postID}/comments", s.createComment)
			r.Post("/{postID}/comments/{commentID}/like", s.likeComment)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Post("/", s.createVideo)
			r.Post("/{videoID}/like", s.likeVideo)
		})

		r.Post("/users", s.createUser)
		r.Post("/users/{username}/follow", s.followUser)
		r.Post("/users/{username}/unfollow", s.unfollowUser)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.listNotifications)
			r.Post("/read-all", s.markAllNotificationsRead)
			r.Post("/{notificationID}/read", s.markNotificationRead)
		})

		r.Post("/verification/approve", s.approveVerification)

		r.Get("/ws/notifications", s.notificationSocket)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// publish is fire-and-forget: a bus failure is logged, never surfaced,
// since the direct write already succeeded.
func (s *Server) publish(subject string, ev any) {
	if err := s.publisher.Publish(subject, ev); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}
