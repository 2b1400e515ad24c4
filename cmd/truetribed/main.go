package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/truetribe/backend/internal/api"
	"github.com/truetribe/backend/internal/badge"
	"github.com/truetribe/backend/internal/cache"
	"github.com/truetribe/backend/internal/config"
	"github.com/truetribe/backend/internal/dispatch"
	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/notify"
	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/ws"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("truetribed starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if err := store.Migrate(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// JWT secret guards every /api/v1 route
	if cfg.JWTSecret == "" {
		slog.Error("TRIBE_JWT_SECRET is required")
		os.Exit(1)
	}

	// NATS
	bus, err := events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Redis leaderboard cache (optional — every read falls through to Postgres without it)
	var board api.LeaderboardCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		board = cache.NewLeaderboard(rdb, cfg.LeaderboardTTL)
		slog.Info("redis connected", "addr", cfg.RedisAddr, "ttl", cfg.LeaderboardTTL)
	} else {
		slog.Warn("redis not configured — leaderboard served from postgres on every request")
	}

	// WebSocket hub and notification emitter
	hub := ws.NewHub(slog.Default())
	emitter := notify.NewEmitter(db, hub, slog.Default())

	// Badge awards and the event dispatcher
	awarder := badge.NewAwarder(db, slog.Default())
	dispatcher := dispatch.New(db, emitter, awarder, slog.Default())

	if err := dispatcher.Register(bus); err != nil {
		slog.Error("failed to subscribe to events", "error", err)
		os.Exit(1)
	}
	slog.Info("event dispatcher registered")

	// HTTP API
	srv := api.NewServer(api.Config{
		Port:      cfg.Port,
		Store:     db,
		Publisher: bus,
		Recorder:  dispatcher,
		Awarder:   awarder,
		Board:     board,
		Hub:       hub,
		JWTSecret: []byte(cfg.JWTSecret),
		Logger:    slog.Default(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("truetribed ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("truetribed stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
