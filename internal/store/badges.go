package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Badge struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BadgeType string    `json:"badge_type"`
	IsActive  bool      `json:"is_active"`
	EarnedAt  time.Time `json:"earned_at"`
}

// CreateBadge inserts the (user, badge_type) pair if absent. The bool
// reports whether this call created it; on conflict the existing badge
// is returned unchanged.
func (s *Store) CreateBadge(ctx context.Context, userID uuid.UUID, badgeType string) (*Badge, bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO trust_badges (id, user_id, badge_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_type) DO NOTHING`,
		uuid.New(), userID, badgeType)
	if err != nil {
		return nil, false, fmt.Errorf("insert badge: %w", err)
	}
	created := tag.RowsAffected() > 0

	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, badge_type, is_active, earned_at
		FROM trust_badges
		WHERE user_id = $1 AND badge_type = $2`,
		userID, badgeType)

	var b Badge
	if err := row.Scan(&b.ID, &b.UserID, &b.BadgeType, &b.IsActive, &b.EarnedAt); err != nil {
		return nil, false, fmt.Errorf("fetch badge: %w", err)
	}
	return &b, created, nil
}

// ListBadges returns a user's active badges.
func (s *Store) ListBadges(ctx context.Context, userID uuid.UUID) ([]Badge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, badge_type, is_active, earned_at
		FROM trust_badges
		WHERE user_id = $1 AND is_active
		ORDER BY earned_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeType, &b.IsActive, &b.EarnedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// RevokeBadge soft-deletes a badge. The one-time score bonus from the
// original award is not refunded.
func (s *Store) RevokeBadge(ctx context.Context, userID uuid.UUID, badgeType string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trust_badges SET is_active = FALSE
		WHERE user_id = $1 AND badge_type = $2`,
		userID, badgeType)
	if err != nil {
		return fmt.Errorf("revoke badge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
