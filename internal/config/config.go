package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	NatsURL        string
	NatsToken      string
	DatabaseURL    string
	RedisAddr      string
	JWTSecret      string
	LogLevel       string
	LeaderboardTTL time.Duration
}

func Load() Config {
	return Config{
		Port:           envInt("TRIBE_PORT", 8810),
		NatsURL:        envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:      envStr("NATS_TOKEN", ""),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		RedisAddr:      envStr("REDIS_ADDR", ""),
		JWTSecret:      envStr("TRIBE_JWT_SECRET", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LeaderboardTTL: envDuration("TRIBE_LEADERBOARD_TTL", 5*time.Minute),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
