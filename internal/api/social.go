package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/store"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// createUser provisions a profile row for an identity the auth layer
// already vouches for. Credentials never pass through this service.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Username == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "username and email required")
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}
		s.logger.Error("user create failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "user create failed")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type createPostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	post, err := s.store.CreatePost(r.Context(), Actor(r), req.Content, req.ImageURL)
	if err != nil {
		s.logger.Error("post create failed", "author", Actor(r), "error", err)
		writeError(w, http.StatusInternalServerError, "post create failed")
		return
	}

	s.publish(events.SubjectPostCreated, events.PostCreated{
		PostID:   post.ID.String(),
		AuthorID: post.AuthorID.String(),
	})
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	// Ownership is part of the delete predicate: a non-owner sees the
	// same 404 as a missing post, and nothing is mutated first.
	if err := s.store.DeletePost(r.Context(), postID, Actor(r)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) (*store.Post, bool) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return nil, false
	}
	post, err := s.store.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return post, true
}

// likePost toggles: first call likes, second unlikes. Each direction
// publishes its event; the dispatcher owns the counter and score
// side effects.
func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	actor := Actor(r)

	created, err := s.store.LikePost(r.Context(), actor, post.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "like failed")
		return
	}
	if created {
		s.publish(events.SubjectPostLiked, events.PostLiked{
			PostID:   post.ID.String(),
			AuthorID: post.AuthorID.String(),
			ActorID:  actor.String(),
		})
		writeJSON(w, http.StatusOK, map[string]any{"message": "post liked", "liked": true})
		return
	}

	if _, err := s.store.UnlikePost(r.Context(), actor, post.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "unlike failed")
		return
	}
	s.publish(events.SubjectPostUnliked, events.PostUnliked{
		PostID:  post.ID.String(),
		ActorID: actor.String(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "post unliked", "liked": false})
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid parent_id")
			return
		}
		parentID = &id
	}

	comment, err := s.store.CreateComment(r.Context(), post.ID, Actor(r), parentID, req.Content)
	if err != nil {
		s.logger.Error("comment create failed", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "comment failed")
		return
	}

	s.publish(events.SubjectCommentAdded, events.CommentAdded{
		PostID:     post.ID.String(),
		CommentID:  comment.ID.String(),
		PostAuthor: post.AuthorID.String(),
		ActorID:    comment.AuthorID.String(),
	})
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	comments, err := s.store.ListComments(r.Context(), post.ID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "comments unavailable")
		return
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) likeComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	comment, err := s.store.GetComment(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	actor := Actor(r)

	created, err := s.store.LikeComment(r.Context(), actor, comment.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "like failed")
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "already liked")
		return
	}

	s.publish(events.SubjectCommentLiked, events.CommentLiked{
		CommentID: comment.ID.String(),
		AuthorID:  comment.AuthorID.String(),
		ActorID:   actor.String(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "comment liked"})
}

func (s *Server) followUser(w http.ResponseWriter, r *http.Request) {
	target, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	actor := Actor(r)

	created, err := s.store.CreateFollow(r.Context(), actor, target.ID)
	if err != nil {
		if errors.Is(err, store.ErrSelfAction) {
			writeError(w, http.StatusBadRequest, "cannot follow yourself")
			return
		}
		writeError(w, http.StatusInternalServerError, "follow failed")
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "already following this user")
		return
	}

	s.publish(events.SubjectFollowCreated, events.FollowCreated{
		FollowerID:  actor.String(),
		FollowingID: target.ID.String(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "user followed"})
}

func (s *Server) unfollowUser(w http.ResponseWriter, r *http.Request) {
	target, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	actor := Actor(r)

	removed, err := s.store.DeleteFollow(r.Context(), actor, target.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unfollow failed")
		return
	}
	if !removed {
		writeError(w, http.StatusBadRequest, "not following this user")
		return
	}

	s.publish(events.SubjectFollowRemoved, events.FollowRemoved{
		FollowerID:  actor.String(),
		FollowingID: target.ID.String(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "user unfollowed"})
}

type createVideoRequest struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}

func (s *Server) createVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" || req.VideoURL == "" {
		writeError(w, http.StatusBadRequest, "title and video_url required")
		return
	}

	video, err := s.store.CreateVideo(r.Context(), Actor(r), req.Title, req.VideoURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "video create failed")
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (s *Server) likeVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := s.store.GetVideo(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	actor := Actor(r)

	created, err := s.store.LikeVideo(r.Context(), actor, video.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "like failed")
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "already liked")
		return
	}

	s.publish(events.SubjectVideoLiked, events.VideoLiked{
		VideoID:  video.ID.String(),
		AuthorID: video.AuthorID.String(),
		ActorID:  actor.String(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "video liked"})
}

var verificationTypes = map[string]struct{}{
	"email": {}, "phone": {}, "identity": {}, "business": {}, "celebrity": {},
}

type approveVerificationRequest struct {
	UserID           string `json:"user_id"`
	VerificationType string `json:"verification_type"`
}

// approveVerification publishes the approval event; the dispatcher
// applies the bonus, awards the badge, and notifies the user.
func (s *Server) approveVerification(w http.ResponseWriter, r *http.Request) {
	var req approveVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, ok := verificationTypes[req.VerificationType]; !ok {
		writeError(w, http.StatusBadRequest, "invalid verification_type")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	s.publish(events.SubjectVerificationApproved, events.VerificationApproved{
		UserID:           userID.String(),
		VerificationType: req.VerificationType,
		ReviewerID:       Actor(r).String(),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "verification approved"})
}
