package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateFollow records a follow edge. Self-follows are rejected before
// any write. The bool reports whether the edge was created; a duplicate
// follow creates nothing.
func (s *Store) CreateFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfAction
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO follows (id, follower_id, following_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, following_id) DO NOTHING`,
		uuid.New(), followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteFollow removes a follow edge; the bool reports whether one
// existed.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
