package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Post struct {
	ID            uuid.UUID `json:"id"`
	AuthorID      uuid.UUID `json:"author_id"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"image_url"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	SharesCount   int       `json:"shares_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Comment struct {
	ID         uuid.UUID  `json:"id"`
	PostID     uuid.UUID  `json:"post_id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Content    string     `json:"content"`
	LikesCount int        `json:"likes_count"`
	CreatedAt  time.Time  `json:"created_at"`
}

const postColumns = `id, author_id, content, image_url, likes_count, comments_count, shares_count, created_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.ImageURL,
		&p.LikesCount, &p.CommentsCount, &p.SharesCount, &p.CreatedAt)
	if noRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, authorID uuid.UUID, content, imageURL string) (*Post, error) {
	return scanPost(s.pool.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, content, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+postColumns,
		uuid.New(), authorID, content, imageURL))
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return scanPost(s.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

// DeletePost removes a post owned by authorID. ErrNotFound covers both a
// missing post and a non-owner caller; authorization checks happen here
// so no other row is touched first.
func (s *Store) DeletePost(ctx context.Context, id, authorID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LikePost records a like edge. The bool reports whether the edge was
// created; a duplicate like is a no-op.
func (s *Store) LikePost(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO post_likes (id, user_id, post_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING`,
		uuid.New(), userID, postID)
	if err != nil {
		return false, fmt.Errorf("insert post like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UnlikePost removes a like edge. The bool reports whether one existed.
func (s *Store) UnlikePost(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete post like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BumpPostLikes adjusts a post's denormalized like counter, floored at zero.
func (s *Store) BumpPostLikes(ctx context.Context, postID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET likes_count = GREATEST(0, likes_count + $1), updated_at = now()
		WHERE id = $2`,
		delta, postID)
	if err != nil {
		return fmt.Errorf("bump post likes: %w", err)
	}
	return nil
}

// BumpPostComments adjusts a post's denormalized comment counter.
func (s *Store) BumpPostComments(ctx context.Context, postID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET comments_count = GREATEST(0, comments_count + $1), updated_at = now()
		WHERE id = $2`,
		delta, postID)
	if err != nil {
		return fmt.Errorf("bump post comments: %w", err)
	}
	return nil
}

func (s *Store) CreateComment(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*Comment, error) {
	c := Comment{
		ID:       uuid.New(),
		PostID:   postID,
		AuthorID: authorID,
		ParentID: parentID,
		Content:  content,
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, author_id, parent_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		c.ID, c.PostID, c.AuthorID, c.ParentID, c.Content)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &c, nil
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, post_id, author_id, parent_id, content, likes_count, created_at
		FROM comments WHERE id = $1`, id)

	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.LikesCount, &c.CreatedAt)
	if noRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComments returns a post's top-level comments, oldest first.
func (s *Store) ListComments(ctx context.Context, postID uuid.UUID, limit int) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, post_id, author_id, parent_id, content, likes_count, created_at
		FROM comments
		WHERE post_id = $1 AND parent_id IS NULL
		ORDER BY created_at
		LIMIT $2`,
		postID, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.LikesCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// LikeComment records a like edge on a comment. The bool reports whether
// the edge was created.
func (s *Store) LikeComment(ctx context.Context, userID, commentID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO comment_likes (id, user_id, comment_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, comment_id) DO NOTHING`,
		uuid.New(), userID, commentID)
	if err != nil {
		return false, fmt.Errorf("insert comment like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BumpCommentLikes adjusts a comment's denormalized like counter,
// floored at zero.
func (s *Store) BumpCommentLikes(ctx context.Context, commentID uuid.UUID, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE comments
		SET likes_count = GREATEST(0, likes_count + $1)
		WHERE id = $2`,
		delta, commentID)
	if err != nil {
		return fmt.Errorf("bump comment likes: %w", err)
	}
	return nil
}
