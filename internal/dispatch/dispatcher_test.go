package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
)

// fakeStore holds the slice of state the dispatcher touches.
type fakeStore struct {
	users        map[uuid.UUID]*store.User
	postLikes    map[uuid.UUID]int
	postComments map[uuid.UUID]int
	commentLikes map[uuid.UUID]int
	videoLikes   map[uuid.UUID]int
	ledgers      map[uuid.UUID]*store.TrustScore
	actions      []store.TrustAction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[uuid.UUID]*store.User),
		postLikes:    make(map[uuid.UUID]int),
		postComments: make(map[uuid.UUID]int),
		commentLikes: make(map[uuid.UUID]int),
		videoLikes:   make(map[uuid.UUID]int),
		ledgers:      make(map[uuid.UUID]*store.TrustScore),
	}
}

func (f *fakeStore) addUser(username string) uuid.UUID {
	id := uuid.New()
	f.users[id] = &store.User{ID: id, Username: username}
	return id
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) SetUserVerified(_ context.Context, userID uuid.UUID) error {
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeStore) BumpPostsCount(_ context.Context, userID uuid.UUID, delta int) error {
	u := f.users[userID]
	u.PostsCount += delta
	if u.PostsCount < 0 {
		u.PostsCount = 0
	}
	return nil
}

func (f *fakeStore) BumpFollowCounts(_ context.Context, followerID, followingID uuid.UUID, delta int) error {
	fr, fg := f.users[followerID], f.users[followingID]
	fr.FollowingCount += delta
	fg.FollowersCount += delta
	if fr.FollowingCount < 0 {
		fr.FollowingCount = 0
	}
	if fg.FollowersCount < 0 {
		fg.FollowersCount = 0
	}
	return nil
}

func bump(m map[uuid.UUID]int, id uuid.UUID, delta int) {
	m[id] += delta
	if m[id] < 0 {
		m[id] = 0
	}
}

func (f *fakeStore) BumpPostLikes(_ context.Context, postID uuid.UUID, delta int) error {
	bump(f.postLikes, postID, delta)
	return nil
}

func (f *fakeStore) BumpPostComments(_ context.Context, postID uuid.UUID, delta int) error {
	bump(f.postComments, postID, delta)
	return nil
}

func (f *fakeStore) BumpCommentLikes(_ context.Context, commentID uuid.UUID, delta int) error {
	bump(f.commentLikes, commentID, delta)
	return nil
}

func (f *fakeStore) BumpVideoLikes(_ context.Context, videoID uuid.UUID, delta int) error {
	bump(f.videoLikes, videoID, delta)
	return nil
}

func (f *fakeStore) GetOrCreateTrustScore(_ context.Context, userID uuid.UUID) (*store.TrustScore, bool, error) {
	if ts, ok := f.ledgers[userID]; ok {
		return ts, false, nil
	}
	ts := &store.TrustScore{ID: uuid.New(), UserID: userID}
	ts.SetLedger(trust.NewLedger())
	f.ledgers[userID] = ts
	return ts, true, nil
}

func (f *fakeStore) SaveTrustScore(_ context.Context, t *store.TrustScore) error {
	f.ledgers[t.UserID] = t
	return nil
}

func (f *fakeStore) InsertTrustAction(_ context.Context, userID uuid.UUID, actionType string, scoreChange float64, description string) (*store.TrustAction, error) {
	a := store.TrustAction{ID: uuid.New(), UserID: userID, ActionType: actionType, ScoreChange: scoreChange, Description: description}
	f.actions = append(f.actions, a)
	return &a, nil
}

type fakeNotifier struct {
	emitted []*store.Notification
}

func (f *fakeNotifier) Emit(_ context.Context, n *store.Notification) error {
	f.emitted = append(f.emitted, n)
	return nil
}

type fakeAwarder struct {
	awards []string
}

func (f *fakeAwarder) Award(_ context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error) {
	f.awards = append(f.awards, badgeType)
	return &store.Badge{UserID: userID, BadgeType: badgeType, IsActive: true}, true, nil
}

func newTestDispatcher() (*Dispatcher, *fakeStore, *fakeNotifier, *fakeAwarder) {
	fs := newFakeStore()
	fn := &fakeNotifier{}
	fa := &fakeAwarder{}
	return New(fs, fn, fa, slog.Default()), fs, fn, fa
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandlePostLiked(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	author := fs.addUser("alice")
	actor := fs.addUser("bob")
	postID := uuid.New()

	d.HandlePostLiked(events.SubjectPostLiked, marshal(t, events.PostLiked{
		PostID:   postID.String(),
		AuthorID: author.String(),
		ActorID:  actor.String(),
	}))

	assert.Equal(t, 1, fs.postLikes[postID])

	require.Len(t, fs.actions, 1)
	assert.Equal(t, string(trust.ActionPostLike), fs.actions[0].ActionType)
	assert.Equal(t, 0.5, fs.actions[0].ScoreChange)
	assert.Equal(t, actor, fs.actions[0].UserID)

	assert.Equal(t, 50.5, fs.ledgers[actor].FinalScore)

	require.Len(t, fn.emitted, 1)
	assert.Equal(t, author, fn.emitted[0].RecipientID)
	assert.Equal(t, "bob liked your post", fn.emitted[0].Message)
}

func TestHandlePostLiked_OwnPostNoNotification(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	author := fs.addUser("alice")
	postID := uuid.New()

	d.HandlePostLiked(events.SubjectPostLiked, marshal(t, events.PostLiked{
		PostID:   postID.String(),
		AuthorID: author.String(),
		ActorID:  author.String(),
	}))

	assert.Empty(t, fn.emitted, "actor never notified about their own event")
	assert.Len(t, fs.actions, 1, "score effect still applies")
}

func TestLikeThenUnlike_CounterRestoredLogOnlyGrows(t *testing.T) {
	d, fs, _, _ := newTestDispatcher()
	author := fs.addUser("alice")
	actor := fs.addUser("bob")
	postID := uuid.New()

	d.HandlePostLiked(events.SubjectPostLiked, marshal(t, events.PostLiked{
		PostID: postID.String(), AuthorID: author.String(), ActorID: actor.String(),
	}))
	afterLike := fs.ledgers[actor].FinalScore

	d.HandlePostUnliked(events.SubjectPostUnliked, marshal(t, events.PostUnliked{
		PostID: postID.String(), ActorID: actor.String(),
	}))

	assert.Equal(t, 0, fs.postLikes[postID], "counter restored")
	assert.Len(t, fs.actions, 1, "no compensating audit entry")
	assert.Equal(t, afterLike, fs.ledgers[actor].FinalScore, "score credit retained")
}

func TestHandlePostUnliked_FloorsAtZero(t *testing.T) {
	d, fs, _, _ := newTestDispatcher()
	actor := fs.addUser("bob")
	postID := uuid.New()

	d.HandlePostUnliked(events.SubjectPostUnliked, marshal(t, events.PostUnliked{
		PostID: postID.String(), ActorID: actor.String(),
	}))
	assert.Equal(t, 0, fs.postLikes[postID])
}

func TestHandleCommentAdded(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	author := fs.addUser("alice")
	actor := fs.addUser("bob")
	postID := uuid.New()

	d.HandleCommentAdded(events.SubjectCommentAdded, marshal(t, events.CommentAdded{
		PostID:     postID.String(),
		CommentID:  uuid.New().String(),
		PostAuthor: author.String(),
		ActorID:    actor.String(),
	}))

	assert.Equal(t, 1, fs.postComments[postID])
	assert.Equal(t, 51.0, fs.ledgers[actor].FinalScore)
	require.Len(t, fn.emitted, 1)
	assert.Equal(t, "comment", fn.emitted[0].Type)
}

func TestHandleFollowCreatedAndRemoved(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	follower := fs.addUser("bob")
	followed := fs.addUser("alice")

	d.HandleFollowCreated(events.SubjectFollowCreated, marshal(t, events.FollowCreated{
		FollowerID: follower.String(), FollowingID: followed.String(),
	}))

	assert.Equal(t, 1, fs.users[follower].FollowingCount)
	assert.Equal(t, 1, fs.users[followed].FollowersCount)
	assert.Equal(t, 50.5, fs.ledgers[follower].FinalScore)
	require.Len(t, fn.emitted, 1)
	assert.Equal(t, followed, fn.emitted[0].RecipientID)

	d.HandleFollowRemoved(events.SubjectFollowRemoved, marshal(t, events.FollowRemoved{
		FollowerID: follower.String(), FollowingID: followed.String(),
	}))

	assert.Equal(t, 0, fs.users[follower].FollowingCount)
	assert.Equal(t, 0, fs.users[followed].FollowersCount)
	assert.Equal(t, 50.5, fs.ledgers[follower].FinalScore, "unfollow keeps the credit")
	assert.Len(t, fs.actions, 1)
}

func TestHandlePostCreated(t *testing.T) {
	d, fs, _, _ := newTestDispatcher()
	author := fs.addUser("alice")

	d.HandlePostCreated(events.SubjectPostCreated, marshal(t, events.PostCreated{
		PostID: uuid.New().String(), AuthorID: author.String(),
	}))

	assert.Equal(t, 1, fs.users[author].PostsCount)
	require.Len(t, fs.actions, 1)
	assert.Equal(t, string(trust.ActionPostCreate), fs.actions[0].ActionType)
	assert.Equal(t, 52.0, fs.ledgers[author].FinalScore)
}

func TestHandleCommentLiked_NoScoreEffect(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	author := fs.addUser("alice")
	actor := fs.addUser("bob")
	commentID := uuid.New()

	d.HandleCommentLiked(events.SubjectCommentLiked, marshal(t, events.CommentLiked{
		CommentID: commentID.String(), AuthorID: author.String(), ActorID: actor.String(),
	}))

	assert.Equal(t, 1, fs.commentLikes[commentID])
	require.Len(t, fn.emitted, 1)
	assert.Equal(t, "Comment Liked", fn.emitted[0].Title)
	assert.Empty(t, fs.actions, "comment likes do not score")
}

func TestHandleVideoLiked_NoScoreEffect(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	author := fs.addUser("alice")
	actor := fs.addUser("bob")
	videoID := uuid.New()

	d.HandleVideoLiked(events.SubjectVideoLiked, marshal(t, events.VideoLiked{
		VideoID: videoID.String(), AuthorID: author.String(), ActorID: actor.String(),
	}))

	assert.Equal(t, 1, fs.videoLikes[videoID])
	require.Len(t, fn.emitted, 1)
	assert.Equal(t, "Video Liked", fn.emitted[0].Title)
	assert.Empty(t, fs.actions, "video likes do not score")
}

func TestHandleVerificationApproved(t *testing.T) {
	d, fs, fn, fa := newTestDispatcher()
	user := fs.addUser("alice")

	d.HandleVerificationApproved(events.SubjectVerificationApproved, marshal(t, events.VerificationApproved{
		UserID:           user.String(),
		VerificationType: "email",
		ReviewerID:       uuid.New().String(),
	}))

	require.Len(t, fs.actions, 1)
	assert.Equal(t, string(trust.ActionVerification), fs.actions[0].ActionType)
	assert.Equal(t, 10.0, fs.actions[0].ScoreChange)
	assert.Equal(t, 60.0, fs.ledgers[user].FinalScore)

	assert.Equal(t, []string{trust.BadgeVerifiedEmail}, fa.awards)
	assert.False(t, fs.users[user].IsVerified, "email verification alone does not verify the profile")

	require.Len(t, fn.emitted, 1)
	assert.Equal(t, user, fn.emitted[0].RecipientID)
}

func TestHandleVerificationApproved_IdentitySetsVerifiedFlag(t *testing.T) {
	d, fs, _, fa := newTestDispatcher()
	user := fs.addUser("alice")

	d.HandleVerificationApproved(events.SubjectVerificationApproved, marshal(t, events.VerificationApproved{
		UserID:           user.String(),
		VerificationType: "identity",
		ReviewerID:       uuid.New().String(),
	}))

	assert.True(t, fs.users[user].IsVerified, "identity approval must verify the profile")
	assert.Equal(t, []string{trust.BadgeVerifiedID}, fa.awards)
	assert.Equal(t, 60.0, fs.ledgers[user].FinalScore)
}

func TestHandleScamReportVerified(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()
	reporter := fs.addUser("alice")
	reported := fs.addUser("mallory")

	d.HandleScamReportVerified(events.SubjectScamReportVerified, marshal(t, events.ScamReportVerified{
		ReportID:   uuid.New().String(),
		ReporterID: reporter.String(),
		ReportedID: reported.String(),
		ReviewerID: uuid.New().String(),
	}))

	// Penalty stores the magnitude; the reported user lands on 35.
	assert.Equal(t, 15.0, fs.ledgers[reported].PenaltyScore)
	assert.Equal(t, 35.0, fs.ledgers[reported].FinalScore)

	// The reporter earns community credit.
	assert.Equal(t, 5.0, fs.ledgers[reporter].CommunityScore)
	assert.Equal(t, 55.0, fs.ledgers[reporter].FinalScore)

	require.Len(t, fn.emitted, 1)
	assert.Equal(t, reporter, fn.emitted[0].RecipientID)
}

func TestRecordAction_RejectsUnknownType(t *testing.T) {
	d, fs, _, _ := newTestDispatcher()

	_, err := d.RecordAction(context.Background(), uuid.New(), trust.ActionType("banana"), 1, "")
	assert.Error(t, err)
	assert.Empty(t, fs.actions)
}

func TestRecordAction_FinalAlwaysClamped(t *testing.T) {
	d, fs, _, _ := newTestDispatcher()
	user := fs.addUser("alice")

	for i := 0; i < 30; i++ {
		_, err := d.RecordAction(context.Background(), user, trust.ActionComment, trust.DeltaComment, "Added a comment")
		require.NoError(t, err)
	}
	assert.Equal(t, 100.0, fs.ledgers[user].FinalScore, "clamped at 100")

	_, err := d.RecordAction(context.Background(), user, trust.ActionScamDetected, -500, "massive penalty")
	require.NoError(t, err)
	assert.Equal(t, 0.0, fs.ledgers[user].FinalScore, "clamped at 0")
}

func TestHandlePostLiked_MalformedEventIgnored(t *testing.T) {
	d, fs, fn, _ := newTestDispatcher()

	d.HandlePostLiked(events.SubjectPostLiked, []byte("{not json"))
	d.HandlePostLiked(events.SubjectPostLiked, marshal(t, events.PostLiked{
		PostID: "not-a-uuid", AuthorID: "nope", ActorID: "nah",
	}))

	assert.Empty(t, fs.actions)
	assert.Empty(t, fn.emitted)
}
