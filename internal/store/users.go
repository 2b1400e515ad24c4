package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	IsVerified     bool      `json:"is_verified"`
	IsPrivate      bool      `json:"is_private"`
	TrustScore     float64   `json:"trust_score"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	PostsCount     int       `json:"posts_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// LeaderboardEntry is one ranked row of the trust leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"username"`
	TrustScore float64 `json:"trust_score"`
	IsVerified bool    `json:"is_verified"`
	AvatarURL  string  `json:"avatar_url"`
}

const userColumns = `id, username, email, bio, avatar_url, is_verified, is_private,
	trust_score, followers_count, following_count, posts_count, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Bio, &u.AvatarURL, &u.IsVerified,
		&u.IsPrivate, &u.TrustScore, &u.FollowersCount, &u.FollowingCount, &u.PostsCount, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// CreateUser provisions a user row. A taken username or email returns
// ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, username, email string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		uuid.New(), username, email))
	if uniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	return u, err
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SetUserVerified flips the verified flag on an approved identity
// verification. It is never unset here; revoking verification is an
// admin path this service does not expose.
func (s *Store) SetUserVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now()
		WHERE id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("set user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpPostsCount adjusts a user's denormalized posts counter, floored at
// zero. Counters are best-effort approximations, not ledgers.
func (s *Store) BumpPostsCount(ctx context.Context, userID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET posts_count = GREATEST(0, posts_count + $1), updated_at = now()
		WHERE id = $2`,
		delta, userID)
	if err != nil {
		return fmt.Errorf("bump posts count: %w", err)
	}
	return nil
}

// BumpFollowCounts adjusts both sides of a follow edge: following_count
// on the follower and followers_count on the followed user, each floored
// at zero.
func (s *Store) BumpFollowCounts(ctx context.Context, followerID, followingID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET following_count = GREATEST(0, following_count + $1), updated_at = now()
		WHERE id = $2`,
		delta, followerID)
	if err != nil {
		return fmt.Errorf("bump following count: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE users
		SET followers_count = GREATEST(0, followers_count + $1), updated_at = now()
		WHERE id = $2`,
		delta, followingID)
	if err != nil {
		return fmt.Errorf("bump followers count: %w", err)
	}
	return nil
}

// Leaderboard returns the top users by denormalized trust score at or
// above minScore, descending. Ties break on account age so the ordering
// is deterministic per run.
func (s *Store) Leaderboard(ctx context.Context, minScore float64, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username, trust_score, is_verified, avatar_url
		FROM users
		WHERE trust_score >= $1
		ORDER BY trust_score DESC, created_at ASC
		LIMIT $2`,
		minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.TrustScore, &e.IsVerified, &e.AvatarURL); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
