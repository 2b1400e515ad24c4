package trust

// ActionType identifies a score-affecting event in the audit log.
type ActionType string

const (
	ActionPostLike       ActionType = "post_like"
	ActionPostShare      ActionType = "post_share"
	ActionComment        ActionType = "comment"
	ActionFollow         ActionType = "follow"
	ActionPostCreate     ActionType = "post_create"
	ActionVerification   ActionType = "verification"
	ActionReportResolved ActionType = "report_resolved"
	ActionBadgeEarned    ActionType = "badge_earned"
	ActionReportFalse    ActionType = "report_false"
	ActionSpamDetected   ActionType = "spam_detected"
	ActionScamDetected   ActionType = "scam_detected"
)

// ValidAction reports whether t is a known action type.
func ValidAction(t ActionType) bool {
	return BucketFor(t) != BucketNone
}

// Bucket identifies which ledger component an action feeds.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketActivity
	BucketVerification
	BucketCommunity
	BucketPenalty
)

// BucketFor routes an action type to its ledger component.
func BucketFor(t ActionType) Bucket {
	switch t {
	case ActionPostLike, ActionPostShare, ActionComment, ActionFollow, ActionPostCreate:
		return BucketActivity
	case ActionVerification:
		return BucketVerification
	case ActionReportResolved, ActionBadgeEarned:
		return BucketCommunity
	case ActionSpamDetected, ActionScamDetected, ActionReportFalse:
		return BucketPenalty
	default:
		return BucketNone
	}
}

// Fixed score deltas per action type.
const (
	DeltaPostLike             = 0.5
	DeltaPostShare            = 0.5
	DeltaComment              = 1.0
	DeltaFollow               = 0.5
	DeltaPostCreate           = 2.0
	DeltaVerificationApproved = 10.0
	DeltaVerificationBadge    = 5.0
	DeltaVerificationAdmin    = 15.0
	DeltaReportResolved       = 5.0
	DeltaScamVerified         = 15.0
)

const (
	// DefaultBase is the neutral starting score for a fresh ledger.
	DefaultBase = 50.0

	MinFinal = 0.0
	MaxFinal = 100.0
)

// Ledger is the per-user trust aggregate. Components accumulate
// independently and are unbounded; only Final is clamped. Ledger values
// are immutable snapshots: every transition goes through Apply, which
// recomputes Final, so a ledger with a stale Final cannot be produced
// by this package.
type Ledger struct {
	Base              float64
	VerificationBonus float64
	Activity          float64
	Community         float64
	Penalty           float64
	Final             float64
}

// NewLedger returns the neutral starting ledger (base 50, final 50).
func NewLedger() Ledger {
	return Recompute(Ledger{Base: DefaultBase})
}

// Apply routes change into the bucket for the given action and returns
// the recomputed ledger. Penalty-bucket actions store the magnitude of
// the change, so a caller passing -15 for a verified scam report adds 15
// to the penalty component. Unknown actions leave the ledger unchanged
// apart from the recompute.
func Apply(l Ledger, t ActionType, change float64) Ledger {
	return ApplyToBucket(l, BucketFor(t), change)
}

// ApplyToBucket adds change to a single component and recomputes.
func ApplyToBucket(l Ledger, b Bucket, change float64) Ledger {
	switch b {
	case BucketActivity:
		l.Activity += change
	case BucketVerification:
		l.VerificationBonus += change
	case BucketCommunity:
		l.Community += change
	case BucketPenalty:
		l.Penalty += abs(change)
	}
	return Recompute(l)
}

// Recompute derives Final from the components:
// final = clamp(base + bonus + activity + community - penalty, 0, 100).
func Recompute(l Ledger) Ledger {
	l.Final = clamp(l.Base + l.VerificationBonus + l.Activity + l.Community - l.Penalty)
	return l
}

// ReversesScore reports whether removing the relationship that produced
// an action (unlike, unfollow) retracts the earlier score credit.
// It does not: counters roll back, the ledger keeps the credit.
func ReversesScore(ActionType) bool {
	return false
}

func clamp(score float64) float64 {
	if score < MinFinal {
		return MinFinal
	}
	if score > MaxFinal {
		return MaxFinal
	}
	return score
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
