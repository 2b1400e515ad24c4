package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Title      string    `json:"title"`
	VideoURL   string    `json:"video_url"`
	LikesCount int       `json:"likes_count"`
	ViewsCount int       `json:"views_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Store) CreateVideo(ctx context.Context, authorID uuid.UUID, title, videoURL string) (*Video, error) {
	v := Video{ID: uuid.New(), AuthorID: authorID, Title: title, VideoURL: videoURL}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO videos (id, author_id, title, video_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		v.ID, v.AuthorID, v.Title, v.VideoURL)
	if err := row.Scan(&v.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	return &v, nil
}

func (s *Store) GetVideo(ctx context.Context, id uuid.UUID) (*Video, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, author_id, title, video_url, likes_count, views_count, created_at
		FROM videos WHERE id = $1`, id)

	var v Video
	err := row.Scan(&v.ID, &v.AuthorID, &v.Title, &v.VideoURL, &v.LikesCount, &v.ViewsCount, &v.CreatedAt)
	if noRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LikeVideo records a like edge; duplicates are no-ops, reported by the
// bool.
func (s *Store) LikeVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO video_likes (id, user_id, video_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, video_id) DO NOTHING`,
		uuid.New(), userID, videoID)
	if err != nil {
		return false, fmt.Errorf("insert video like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BumpVideoLikes adjusts a video's denormalized like counter, floored at zero.
func (s *Store) BumpVideoLikes(ctx context.Context, videoID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE videos
		SET likes_count = GREATEST(0, likes_count + $1)
		WHERE id = $2`,
		delta, videoID)
	if err != nil {
		return fmt.Errorf("bump video likes: %w", err)
	}
	return nil
}
