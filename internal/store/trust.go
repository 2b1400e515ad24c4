package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/trust"
)

// TrustScore is the persisted ledger snapshot for one user.
type TrustScore struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	BaseScore         float64
	VerificationBonus float64
	ActivityScore     float64
	CommunityScore    float64
	PenaltyScore      float64
	FinalScore        float64
	LastCalculated    time.Time
}

// Ledger converts the snapshot into the pure trust.Ledger form.
func (t *TrustScore) Ledger() trust.Ledger {
	return trust.Ledger{
		Base:              t.BaseScore,
		VerificationBonus: t.VerificationBonus,
		Activity:          t.ActivityScore,
		Community:         t.CommunityScore,
		Penalty:           t.PenaltyScore,
		Final:             t.FinalScore,
	}
}

// SetLedger copies a ledger back onto the snapshot.
func (t *TrustScore) SetLedger(l trust.Ledger) {
	t.BaseScore = l.Base
	t.VerificationBonus = l.VerificationBonus
	t.ActivityScore = l.Activity
	t.CommunityScore = l.Community
	t.PenaltyScore = l.Penalty
	t.FinalScore = l.Final
}

// TrustAction is one immutable audit-log entry.
type TrustAction struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ActionType  string    `json:"action_type"`
	ScoreChange float64   `json:"score_change"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

const trustScoreColumns = `id, user_id, base_score, verification_bonus, activity_score,
	community_score, penalty_score, final_score, last_calculated`

// GetOrCreateTrustScore fetches a user's ledger, lazily creating the
// neutral default on first access. The bool reports whether a new row
// was created.
func (s *Store) GetOrCreateTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScore, bool, error) {
	l := trust.NewLedger()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO trust_scores (id, user_id, base_score, final_score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID, l.Base, l.Final)
	if err != nil {
		return nil, false, fmt.Errorf("insert trust score: %w", err)
	}
	created := tag.RowsAffected() > 0

	row := s.pool.QueryRow(ctx, `
		SELECT `+trustScoreColumns+` FROM trust_scores WHERE user_id = $1`, userID)

	var t TrustScore
	err = row.Scan(&t.ID, &t.UserID, &t.BaseScore, &t.VerificationBonus, &t.ActivityScore,
		&t.CommunityScore, &t.PenaltyScore, &t.FinalScore, &t.LastCalculated)
	if err != nil {
		return nil, false, fmt.Errorf("fetch trust score: %w", err)
	}
	return &t, created, nil
}

// SaveTrustScore persists a ledger snapshot and mirrors the final score
// onto the user's denormalized trust_score field in the same
// transaction, so the two cannot diverge across a crash.
func (s *Store) SaveTrustScore(ctx context.Context, t *TrustScore) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE trust_scores
		SET base_score = $1, verification_bonus = $2, activity_score = $3,
		    community_score = $4, penalty_score = $5, final_score = $6,
		    last_calculated = now()
		WHERE user_id = $7`,
		t.BaseScore, t.VerificationBonus, t.ActivityScore,
		t.CommunityScore, t.PenaltyScore, t.FinalScore, t.UserID)
	if err != nil {
		return fmt.Errorf("update trust score: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET trust_score = $1, updated_at = now() WHERE id = $2`,
		t.FinalScore, t.UserID)
	if err != nil {
		return fmt.Errorf("mirror trust score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// InsertTrustAction appends one entry to the audit log. Entries are
// never updated or deleted.
func (s *Store) InsertTrustAction(ctx context.Context, userID uuid.UUID, actionType string, scoreChange float64, description string) (*TrustAction, error) {
	a := TrustAction{
		ID:          uuid.New(),
		UserID:      userID,
		ActionType:  actionType,
		ScoreChange: scoreChange,
		Description: description,
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO trust_actions (id, user_id, action_type, score_change, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		a.ID, a.UserID, a.ActionType, a.ScoreChange, a.Description)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert trust action: %w", err)
	}
	return &a, nil
}

// ListTrustActions returns a user's audit log, newest first.
func (s *Store) ListTrustActions(ctx context.Context, userID uuid.UUID, limit int) ([]TrustAction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, action_type, score_change, description, created_at
		FROM trust_actions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query trust actions: %w", err)
	}
	defer rows.Close()

	var actions []TrustAction
	for rows.Next() {
		var a TrustAction
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActionType, &a.ScoreChange, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// CountTrustActions returns the size of a user's audit log.
func (s *Store) CountTrustActions(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM trust_actions WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
