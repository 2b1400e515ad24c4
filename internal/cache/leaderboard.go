// Package cache holds the Redis-backed read caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/truetribe/backend/internal/store"
)

const leaderboardKey = "trust:leaderboard"

// Connect accepts either a redis:// URL or a bare host:port address.
func Connect(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Leaderboard caches the ranked trust leaderboard with a short TTL.
// Cache-aside: a miss or any Redis error just falls through to the
// database read.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

// Get returns the cached entries, or false on miss or error.
func (c *Leaderboard) Get(ctx context.Context) ([]store.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var entries []store.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores the entries for the configured TTL, best-effort.
func (c *Leaderboard) Set(ctx context.Context, entries []store.LeaderboardEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	c.client.Set(ctx, leaderboardKey, data, c.ttl)
}
