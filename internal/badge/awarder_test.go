package badge

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
)

// fakeStore keeps badges and ledgers in memory.
type fakeStore struct {
	badges  map[string]*store.Badge // keyed by userID|badgeType
	ledgers map[uuid.UUID]*store.TrustScore
	actions []store.TrustAction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		badges:  make(map[string]*store.Badge),
		ledgers: make(map[uuid.UUID]*store.TrustScore),
	}
}

func (f *fakeStore) CreateBadge(_ context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error) {
	key := userID.String() + "|" + badgeType
	if b, ok := f.badges[key]; ok {
		return b, false, nil
	}
	b := &store.Badge{ID: uuid.New(), UserID: userID, BadgeType: badgeType, IsActive: true}
	f.badges[key] = b
	return b, true, nil
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

func TestAward_VerifiedBadgeBonus(t *testing.T) {
	fs := newFakeStore()
	a := NewAwarder(fs, slog.Default())
	user := uuid.New()

	b, created, err := a.Award(context.Background(), user, trust.BadgeVerifiedEmail)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, trust.BadgeVerifiedEmail, b.BadgeType)

	ts := fs.ledgers[user]
	assert.Equal(t, 5.0, ts.VerificationBonus)
	assert.Equal(t, 55.0, ts.FinalScore)
	require.Len(t, fs.actions, 1)
	assert.Equal(t, string(trust.ActionBadgeEarned), fs.actions[0].ActionType)
	assert.Equal(t, "Earned badge "+trust.BadgeVerifiedEmail, fs.actions[0].Description)
}

func TestAward_CommunityBadgeBonus(t *testing.T) {
	fs := newFakeStore()
	a := NewAwarder(fs, slog.Default())
	user := uuid.New()

	_, created, err := a.Award(context.Background(), user, trust.BadgeTrustedMember)
	require.NoError(t, err)
	require.True(t, created)

	ts := fs.ledgers[user]
	assert.Equal(t, 10.0, ts.CommunityScore)
	assert.Equal(t, 60.0, ts.FinalScore)
	require.Len(t, fs.actions, 1)
	assert.Equal(t, string(trust.ActionBadgeEarned), fs.actions[0].ActionType)
}

func TestAward_SecondAwardHasNoSideEffects(t *testing.T) {
	fs := newFakeStore()
	a := NewAwarder(fs, slog.Default())
	user := uuid.New()

	_, created, err := a.Award(context.Background(), user, trust.BadgeVerifiedEmail)
	require.NoError(t, err)
	require.True(t, created)
	finalAfterFirst := fs.ledgers[user].FinalScore

	b, created, err := a.Award(context.Background(), user, trust.BadgeVerifiedEmail)
	require.NoError(t, err)
	assert.False(t, created, "second award must report already-existed")
	assert.NotNil(t, b)
	assert.Equal(t, finalAfterFirst, fs.ledgers[user].FinalScore, "no second bonus")
	assert.Len(t, fs.actions, 1, "no second audit entry")
}

func TestAward_UnknownBadgeRejected(t *testing.T) {
	fs := newFakeStore()
	a := NewAwarder(fs, slog.Default())

	_, _, err := a.Award(context.Background(), uuid.New(), "supreme_overlord")
	assert.True(t, errors.Is(err, ErrUnknownBadge))
	assert.Empty(t, fs.badges, "no badge row on validation failure")
	assert.Empty(t, fs.actions)
}
