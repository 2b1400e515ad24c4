// Package events defines the domain events that drive the trust
// side-effect pipeline, and the NATS bus they travel on.
package events

// NATS subjects, one per domain event.
const (
	SubjectPostCreated          = "tribe.post.created"
	SubjectPostLiked            = "tribe.post.liked"
	SubjectPostUnliked          = "tribe.post.unliked"
	SubjectCommentAdded         = "tribe.comment.added"
	SubjectCommentLiked         = "tribe.comment.liked"
	SubjectFollowCreated        = "tribe.follow.created"
	SubjectFollowRemoved        = "tribe.follow.removed"
	SubjectVideoLiked           = "tribe.video.liked"
	SubjectVerificationApproved = "tribe.verification.approved"
	SubjectScamReportVerified   = "tribe.report.scam_verified"
)

// IDs travel as strings and are parsed at the consuming end.

type PostCreated struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

type PostLiked struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	ActorID  string `json:"actor_id"`
}

type PostUnliked struct {
	PostID  string `json:"post_id"`
	ActorID string `json:"actor_id"`
}

type CommentAdded struct {
	PostID     string `json:"post_id"`
	CommentID  string `json:"comment_id"`
	PostAuthor string `json:"post_author_id"`
	ActorID    string `json:"actor_id"`
}

type CommentLiked struct {
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	ActorID   string `json:"actor_id"`
}

type FollowCreated struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

type FollowRemoved struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

type VideoLiked struct {
	VideoID  string `json:"video_id"`
	AuthorID string `json:"author_id"`
	ActorID  string `json:"actor_id"`
}

type VerificationApproved struct {
	UserID           string `json:"user_id"`
	VerificationType string `json:"verification_type"`
	ReviewerID       string `json:"reviewer_id"`
}

type ScamReportVerified struct {
	ReportID   string `json:"report_id"`
	ReporterID string `json:"reporter_id"`
	ReportedID string `json:"reported_id"`
	ReviewerID string `json:"reviewer_id"`
}
