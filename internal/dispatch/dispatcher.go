// Package dispatch reacts to domain events: it updates the affected
// counters, appends trust actions, applies the ledger transition, and
// emits notifications. One handler per event, registered as a NATS
// subscriber.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
)

// Store is the slice of persistence the dispatcher drives.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*store.User, error)
	SetUserVerified(ctx context.Context, userID uuid.UUID) error
	BumpPostsCount(ctx context.Context, userID uuid.UUID, delta int) error
	BumpFollowCounts(ctx context.Context, followerID, followingID uuid.UUID, delta int) error
	BumpPostLikes(ctx context.Context, postID uuid.UUID, delta int) error
	BumpPostComments(ctx context.Context, postID uuid.UUID, delta int) error
	BumpCommentLikes(ctx context.Context, commentID uuid.UUID, delta int) error
	BumpVideoLikes(ctx context.Context, videoID uuid.UUID, delta int) error
	GetOrCreateTrustScore(ctx context.Context, userID uuid.UUID) (*store.TrustScore, bool, error)
	SaveTrustScore(ctx context.Context, t *store.TrustScore) error
	InsertTrustAction(ctx context.Context, userID uuid.UUID, actionType string, scoreChange float64, description string) (*store.TrustAction, error)
}

// Notifier delivers a notification to its recipient, best-effort.
type Notifier interface {
	Emit(ctx context.Context, n *store.Notification) error
}

// Awarder grants badges with their one-time bonus.
type Awarder interface {
	Award(ctx context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error)
}

type Dispatcher struct {
	store    Store
	notifier Notifier
	awarder  Awarder
	logger   *slog.Logger
}

func New(s Store, n Notifier, a Awarder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: s, notifier: n, awarder: a, logger: logger}
}

// RecordAction appends a trust action and routes its score change
// through the ledger in one step. Every score-affecting event funnels
// through here, so the recompute can never be forgotten.
func (d *Dispatcher) RecordAction(ctx context.Context, userID uuid.UUID, action trust.ActionType, change float64, description string) (*store.TrustAction, error) {
	if !trust.ValidAction(action) {
		return nil, fmt.Errorf("invalid action type %q", action)
	}

	a, err := d.store.InsertTrustAction(ctx, userID, string(action), change, description)
	if err != nil {
		return nil, fmt.Errorf("append trust action: %w", err)
	}

	ts, _, err := d.store.GetOrCreateTrustScore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load trust score: %w", err)
	}
	ts.SetLedger(trust.Apply(ts.Ledger(), action, change))
	if err := d.store.SaveTrustScore(ctx, ts); err != nil {
		return nil, fmt.Errorf("save trust score: %w", err)
	}
	return a, nil
}

// notify emits unless the actor caused the event on their own content.
func (d *Dispatcher) notify(ctx context.Context, recipient uuid.UUID, sender *uuid.UUID, typ, title, message string, data map[string]any) {
	if sender != nil && *sender == recipient {
		return
	}
	n := &store.Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        data,
	}
	if err := d.notifier.Emit(ctx, n); err != nil {
		d.logger.Warn("notification emit failed", "recipient", recipient, "type", typ, "error", err)
	}
}

// username resolves an actor's display name for notification text,
// falling back when the lookup fails.
func (d *Dispatcher) username(ctx context.Context, id uuid.UUID) string {
	u, err := d.store.GetUser(ctx, id)
	if err != nil {
		return "Someone"
	}
	return u.Username
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", r, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// HandlePostLiked is the NATS handler for tribe.post.liked.
func (d *Dispatcher) HandlePostLiked(subject string, data []byte) {
	ctx := context.Background()

	var ev events.PostLiked
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad post liked event", "error", err)
		return
	}
	ids, err := parseIDs(ev.PostID, ev.AuthorID, ev.ActorID)
	if err != nil {
		d.logger.Error("bad post liked event", "error", err)
		return
	}
	postID, authorID, actorID := ids[0], ids[1], ids[2]

	if err := d.store.BumpPostLikes(ctx, postID, 1); err != nil {
		d.logger.Error("like counter update failed", "post", postID, "error", err)
	}

	actor := actorID
	d.notify(ctx, authorID, &actor, "like", "New Like",
		fmt.Sprintf("%s liked your post", d.username(ctx, actorID)),
		map[string]any{"post_id": ev.PostID})

	if _, err := d.RecordAction(ctx, actorID, trust.ActionPostLike, trust.DeltaPostLike, "Liked a post"); err != nil {
		d.logger.Error("like score update failed", "user", actorID, "error", err)
	}
}

// HandlePostUnliked is the NATS handler for tribe.post.unliked.
func (d *Dispatcher) HandlePostUnliked(subject string, data []byte) {
	ctx := context.Background()

	var ev events.PostUnliked
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad post unliked event", "error", err)
		return
	}
	ids, err := parseIDs(ev.PostID, ev.ActorID)
	if err != nil {
		d.logger.Error("bad post unliked event", "error", err)
		return
	}
	postID, actorID := ids[0], ids[1]

	if err := d.store.BumpPostLikes(ctx, postID, -1); err != nil {
		d.logger.Error("unlike counter update failed", "post", postID, "error", err)
	}

	// The counter rolls back; the earlier score credit stays unless the
	// policy ever changes.
	if trust.ReversesScore(trust.ActionPostLike) {
		if _, err := d.RecordAction(ctx, actorID, trust.ActionPostLike, -trust.DeltaPostLike, "Unliked a post"); err != nil {
			d.logger.Error("unlike score retraction failed", "user", actorID, "error", err)
		}
	}
}

// HandleCommentAdded is the NATS handler for tribe.comment.added.
func (d *Dispatcher) HandleCommentAdded(subject string, data []byte) {
	ctx := context.Background()

	var ev events.CommentAdded
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad comment event", "error", err)
		return
	}
	ids, err := parseIDs(ev.PostID, ev.PostAuthor, ev.ActorID)
	if err != nil {
		d.logger.Error("bad comment event", "error", err)
		return
	}
	postID, postAuthor, actorID := ids[0], ids[1], ids[2]

	if err := d.store.BumpPostComments(ctx, postID, 1); err != nil {
		d.logger.Error("comment counter update failed", "post", postID, "error", err)
	}

	actor := actorID
	d.notify(ctx, postAuthor, &actor, "comment", "New Comment",
		fmt.Sprintf("%s commented on your post", d.username(ctx, actorID)),
		map[string]any{"post_id": ev.PostID, "comment_id": ev.CommentID})

	if _, err := d.RecordAction(ctx, actorID, trust.ActionComment, trust.DeltaComment, "Added a comment"); err != nil {
		d.logger.Error("comment score update failed", "user", actorID, "error", err)
	}
}

// HandleCommentLiked is the NATS handler for tribe.comment.liked.
// Comment likes notify the author but carry no score effect.
func (d *Dispatcher) HandleCommentLiked(subject string, data []byte) {
	ctx := context.Background()

	var ev events.CommentLiked
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad comment liked event", "error", err)
		return
	}
	ids, err := parseIDs(ev.CommentID, ev.AuthorID, ev.ActorID)
	if err != nil {
		d.logger.Error("bad comment liked event", "error", err)
		return
	}
	commentID, authorID, actorID := ids[0], ids[1], ids[2]

	if err := d.store.BumpCommentLikes(ctx, commentID, 1); err != nil {
		d.logger.Error("comment like counter update failed", "comment", commentID, "error", err)
	}

	actor := actorID
	d.notify(ctx, authorID, &actor, "like", "Comment Liked",
		fmt.Sprintf("%s liked your comment", d.username(ctx, actorID)),
		map[string]any{"comment_id": ev.CommentID})
}

// HandleFollowCreated is the NATS handler for tribe.follow.created.
func (d *Dispatcher) HandleFollowCreated(subject string, data []byte) {
	ctx := context.Background()

	var ev events.FollowCreated
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad follow event", "error", err)
		return
	}
	ids, err := parseIDs(ev.FollowerID, ev.FollowingID)
	if err != nil {
		d.logger.Error("bad follow event", "error", err)
		return
	}
	followerID, followingID := ids[0], ids[1]

	if err := d.store.BumpFollowCounts(ctx, followerID, followingID, 1); err != nil {
		d.logger.Error("follow counter update failed", "follower", followerID, "error", err)
	}

	follower := followerID
	d.notify(ctx, followingID, &follower, "follow", "New Follower",
		fmt.Sprintf("%s started following you", d.username(ctx, followerID)),
		map[string]any{"user_id": ev.FollowerID})

	if _, err := d.RecordAction(ctx, followerID, trust.ActionFollow, trust.DeltaFollow, "Followed a user"); err != nil {
		d.logger.Error("follow score update failed", "user", followerID, "error", err)
	}
}

// HandleFollowRemoved is the NATS handler for tribe.follow.removed.
func (d *Dispatcher) HandleFollowRemoved(subject string, data []byte) {
	ctx := context.Background()

	var ev events.FollowRemoved
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad unfollow event", "error", err)
		return
	}
	ids, err := parseIDs(ev.FollowerID, ev.FollowingID)
	if err != nil {
		d.logger.Error("bad unfollow event", "error", err)
		return
	}
	followerID, followingID := ids[0], ids[1]

	if err := d.store.BumpFollowCounts(ctx, followerID, followingID, -1); err != nil {
		d.logger.Error("unfollow counter update failed", "follower", followerID, "error", err)
	}

	if trust.ReversesScore(trust.ActionFollow) {
		if _, err := d.RecordAction(ctx, followerID, trust.ActionFollow, -trust.DeltaFollow, "Unfollowed a user"); err != nil {
			d.logger.Error("unfollow score retraction failed", "user", followerID, "error", err)
		}
	}
}

// HandlePostCreated is the NATS handler for tribe.post.created.
func (d *Dispatcher) HandlePostCreated(subject string, data []byte) {
	ctx := context.Background()

	var ev events.PostCreated
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad post created event", "error", err)
		return
	}
	ids, err := parseIDs(ev.AuthorID)
	if err != nil {
		d.logger.Error("bad post created event", "error", err)
		return
	}
	authorID := ids[0]

	if err := d.store.BumpPostsCount(ctx, authorID, 1); err != nil {
		d.logger.Error("posts counter update failed", "user", authorID, "error", err)
	}

	if _, err := d.RecordAction(ctx, authorID, trust.ActionPostCreate, trust.DeltaPostCreate, "Created a post"); err != nil {
		d.logger.Error("post create score update failed", "user", authorID, "error", err)
	}
}

// HandleVideoLiked is the NATS handler for tribe.video.liked. Video
// likes notify the author but carry no score effect.
func (d *Dispatcher) HandleVideoLiked(subject string, data []byte) {
	ctx := context.Background()

	var ev events.VideoLiked
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad video liked event", "error", err)
		return
	}
	ids, err := parseIDs(ev.VideoID, ev.AuthorID, ev.ActorID)
	if err != nil {
		d.logger.Error("bad video liked event", "error", err)
		return
	}
	videoID, authorID, actorID := ids[0], ids[1], ids[2]

	if err := d.store.BumpVideoLikes(ctx, videoID, 1); err != nil {
		d.logger.Error("video like counter update failed", "video", videoID, "error", err)
	}

	actor := actorID
	d.notify(ctx, authorID, &actor, "like", "Video Liked",
		fmt.Sprintf("%s liked your video", d.username(ctx, actorID)),
		map[string]any{"video_id": ev.VideoID})
}

// HandleVerificationApproved is the NATS handler for
// tribe.verification.approved: +10 verification bonus plus the matching
// verified badge, which itself adds its one-time +5.
func (d *Dispatcher) HandleVerificationApproved(subject string, data []byte) {
	ctx := context.Background()

	var ev events.VerificationApproved
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad verification event", "error", err)
		return
	}
	ids, err := parseIDs(ev.UserID)
	if err != nil {
		d.logger.Error("bad verification event", "error", err)
		return
	}
	userID := ids[0]

	if _, err := d.RecordAction(ctx, userID, trust.ActionVerification, trust.DeltaVerificationApproved,
		fmt.Sprintf("Verification approved: %s", ev.VerificationType)); err != nil {
		d.logger.Error("verification score update failed", "user", userID, "error", err)
	}

	if badgeType := badgeForVerification(ev.VerificationType); badgeType != "" {
		if _, _, err := d.awarder.Award(ctx, userID, badgeType); err != nil {
			d.logger.Error("verification badge award failed", "user", userID, "badge", badgeType, "error", err)
		}
	}

	// Only a confirmed identity check flips the profile's verified flag;
	// email and phone verifications earn the bonus and badge without it.
	if ev.VerificationType == "identity" {
		if err := d.store.SetUserVerified(ctx, userID); err != nil {
			d.logger.Error("set verified flag failed", "user", userID, "error", err)
		}
	}

	d.notify(ctx, userID, nil, "verification", "Verification Approved",
		fmt.Sprintf("Your %s verification was approved", ev.VerificationType),
		map[string]any{"verification_type": ev.VerificationType})
}

func badgeForVerification(verificationType string) string {
	switch verificationType {
	case "email":
		return trust.BadgeVerifiedEmail
	case "phone":
		return trust.BadgeVerifiedPhone
	case "identity":
		return trust.BadgeVerifiedID
	default:
		return ""
	}
}

// HandleScamReportVerified is the NATS handler for
// tribe.report.scam_verified: a 15-point penalty for the reported user
// and a +5 community credit for the reporter.
func (d *Dispatcher) HandleScamReportVerified(subject string, data []byte) {
	ctx := context.Background()

	var ev events.ScamReportVerified
	if err := json.Unmarshal(data, &ev); err != nil {
		d.logger.Error("bad scam report event", "error", err)
		return
	}
	ids, err := parseIDs(ev.ReporterID, ev.ReportedID)
	if err != nil {
		d.logger.Error("bad scam report event", "error", err)
		return
	}
	reporterID, reportedID := ids[0], ids[1]

	if _, err := d.RecordAction(ctx, reportedID, trust.ActionScamDetected, -trust.DeltaScamVerified,
		"Verified scam report against user"); err != nil {
		d.logger.Error("scam penalty failed", "user", reportedID, "error", err)
	}

	if _, err := d.RecordAction(ctx, reporterID, trust.ActionReportResolved, trust.DeltaReportResolved,
		"Scam report confirmed"); err != nil {
		d.logger.Error("reporter credit failed", "user", reporterID, "error", err)
	}

	d.notify(ctx, reporterID, nil, "report_resolved", "Report Resolved",
		"Your scam report was confirmed", map[string]any{"report_id": ev.ReportID})
}

// Subscriber is the consuming half of the bus.
type Subscriber interface {
	Subscribe(subject string, handler func(subject string, data []byte)) error
}

// Register wires every handler onto its subject.
func (d *Dispatcher) Register(bus Subscriber) error {
	subs := []struct {
		subject string
		handler func(string, []byte)
	}{
		{events.SubjectPostCreated, d.HandlePostCreated},
		{events.SubjectPostLiked, d.HandlePostLiked},
		{events.SubjectPostUnliked, d.HandlePostUnliked},
		{events.SubjectCommentAdded, d.HandleCommentAdded},
		{events.SubjectCommentLiked, d.HandleCommentLiked},
		{events.SubjectFollowCreated, d.HandleFollowCreated},
		{events.SubjectFollowRemoved, d.HandleFollowRemoved},
		{events.SubjectVideoLiked, d.HandleVideoLiked},
		{events.SubjectVerificationApproved, d.HandleVerificationApproved},
		{events.SubjectScamReportVerified, d.HandleScamReportVerified},
	}
	for _, s := range subs {
		if err := bus.Subscribe(s.subject, s.handler); err != nil {
			return err
		}
	}
	return nil
}
