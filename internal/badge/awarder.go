// Package badge grants named achievement badges with their one-time
// ledger bonus.
package badge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
)

// ErrUnknownBadge rejects badge types outside the known set.
var ErrUnknownBadge = fmt.Errorf("unknown badge type")

// Store is the slice of persistence the awarder needs.
type Store interface {
	CreateBadge(ctx context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error)
	GetOrCreateTrustScore(ctx context.Context, userID uuid.UUID) (*store.TrustScore, bool, error)
	SaveTrustScore(ctx context.Context, t *store.TrustScore) error
	InsertTrustAction(ctx context.Context, userID uuid.UUID, actionType string, scoreChange float64, description string) (*store.TrustAction, error)
}

type Awarder struct {
	store  Store
	logger *slog.Logger
}

func NewAwarder(s Store, logger *slog.Logger) *Awarder {
	return &Awarder{store: s, logger: logger}
}

// Award grants a badge if the user does not already hold it. On a fresh
// grant it applies the one-time bonus (verification bucket for
// verified_* badges, community bucket otherwise) and logs a trust
// action. The bool reports created vs already-existed; a repeat award
// has no side effects.
func (a *Awarder) Award(ctx context.Context, userID uuid.UUID, badgeType string) (*store.Badge, bool, error) {
	if !trust.KnownBadge(badgeType) {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownBadge, badgeType)
	}

	b, created, err := a.store.CreateBadge(ctx, userID, badgeType)
	if err != nil {
		return nil, false, fmt.Errorf("create badge: %w", err)
	}
	if !created {
		return b, false, nil
	}

	bucket, amount := trust.BadgeBonus(badgeType)

	if _, err := a.store.InsertTrustAction(ctx, userID, string(trust.ActionBadgeEarned), amount,
		fmt.Sprintf("Earned badge %s", badgeType)); err != nil {
		return nil, false, fmt.Errorf("log badge bonus: %w", err)
	}

	ts, _, err := a.store.GetOrCreateTrustScore(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load trust score: %w", err)
	}
	ts.SetLedger(trust.ApplyToBucket(ts.Ledger(), bucket, amount))
	if err := a.store.SaveTrustScore(ctx, ts); err != nil {
		return nil, false, fmt.Errorf("save trust score: %w", err)
	}

	a.logger.Info("badge awarded", "user", userID, "badge", badgeType, "bonus", amount)
	return b, true, nil
}
