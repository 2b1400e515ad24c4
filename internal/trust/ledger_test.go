package trust

import (
	"math"
	"testing"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name   string
		action ActionType
		want   Bucket
	}{
		{"post like", ActionPostLike, BucketActivity},
		{"post share", ActionPostShare, BucketActivity},
		{"comment", ActionComment, BucketActivity},
		{"follow", ActionFollow, BucketActivity},
		{"post create", ActionPostCreate, BucketActivity},
		{"verification", ActionVerification, BucketVerification},
		{"report resolved", ActionReportResolved, BucketCommunity},
		{"badge earned", ActionBadgeEarned, BucketCommunity},
		{"spam detected", ActionSpamDetected, BucketPenalty},
		{"scam detected", ActionScamDetected, BucketPenalty},
		{"false report", ActionReportFalse, BucketPenalty},
		{"unknown", ActionType("banana"), BucketNone},
		{"empty", ActionType(""), BucketNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(tt.action); got != tt.want {
				t.Errorf("BucketFor(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestNewLedger(t *testing.T) {
	l := NewLedger()
	if l.Base != 50.0 {
		t.Errorf("base = %f, want 50", l.Base)
	}
	if l.Final != 50.0 {
		t.Errorf("final = %f, want 50", l.Final)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		action    ActionType
		change    float64
		wantFinal float64
	}{
		{"like adds to activity", ActionPostLike, DeltaPostLike, 50.5},
		{"comment adds to activity", ActionComment, DeltaComment, 51.0},
		{"post create adds to activity", ActionPostCreate, DeltaPostCreate, 52.0},
		{"verification adds to bonus", ActionVerification, DeltaVerificationApproved, 60.0},
		{"report resolved adds to community", ActionReportResolved, DeltaReportResolved, 55.0},
		{"scam penalty stores magnitude of negative change", ActionScamDetected, -15.0, 35.0},
		{"scam penalty stores positive change as-is", ActionScamDetected, 15.0, 35.0},
		{"unknown action only recomputes", ActionType("banana"), 99.0, 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(NewLedger(), tt.action, tt.change)
			if math.Abs(got.Final-tt.wantFinal) > 0.0001 {
				t.Errorf("Apply(%q, %f).Final = %f, want %f", tt.action, tt.change, got.Final, tt.wantFinal)
			}
		})
	}
}

func TestApply_VerificationScenario(t *testing.T) {
	// Fresh user, verification approval of +10: bonus 10, final 60.
	l := Apply(NewLedger(), ActionVerification, 10.0)
	if l.VerificationBonus != 10.0 {
		t.Errorf("verification bonus = %f, want 10", l.VerificationBonus)
	}
	if l.Final != 60.0 {
		t.Errorf("final = %f, want 60", l.Final)
	}
}

func TestApply_ScamPenaltyScenario(t *testing.T) {
	// Fresh user, verified scam report of -15: penalty 15, final 35.
	l := Apply(NewLedger(), ActionScamDetected, -15.0)
	if l.Penalty != 15.0 {
		t.Errorf("penalty = %f, want 15", l.Penalty)
	}
	if l.Final != 35.0 {
		t.Errorf("final = %f, want 35", l.Final)
	}
}

func TestRecompute_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   Ledger
		want float64
	}{
		{"within range", Ledger{Base: 50, Activity: 20}, 70},
		{"clamped at 100", Ledger{Base: 50, VerificationBonus: 40, Activity: 30}, 100},
		{"exactly 100", Ledger{Base: 50, Community: 50}, 100},
		{"clamped at 0", Ledger{Base: 50, Penalty: 80}, 0},
		{"exactly 0", Ledger{Base: 50, Penalty: 50}, 0},
		{"negative components allowed", Ledger{Base: 50, Activity: -10}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recompute(tt.in)
			if got.Final != tt.want {
				t.Errorf("Recompute(%+v).Final = %f, want %f", tt.in, got.Final, tt.want)
			}
		})
	}
}

func TestRecompute_InvariantAfterEveryApply(t *testing.T) {
	// Whatever sequence of actions runs, final always equals the clamped
	// component sum immediately after Apply.
	l := NewLedger()
	seq := []struct {
		action ActionType
		change float64
	}{
		{ActionPostLike, 0.5},
		{ActionComment, 1.0},
		{ActionVerification, 10.0},
		{ActionScamDetected, -15.0},
		{ActionReportResolved, 5.0},
		{ActionFollow, 0.5},
		{ActionSpamDetected, 40.0},
	}

	for _, s := range seq {
		l = Apply(l, s.action, s.change)
		want := l.Base + l.VerificationBonus + l.Activity + l.Community - l.Penalty
		if want < 0 {
			want = 0
		}
		if want > 100 {
			want = 100
		}
		if math.Abs(l.Final-want) > 0.0001 {
			t.Fatalf("after %q: final = %f, want %f", s.action, l.Final, want)
		}
	}
}

func TestReversesScore(t *testing.T) {
	// Unlike/unfollow keep the earlier credit; the policy says no action
	// type reverses.
	for _, a := range []ActionType{ActionPostLike, ActionFollow, ActionComment} {
		if ReversesScore(a) {
			t.Errorf("ReversesScore(%q) = true, want false", a)
		}
	}
}

func TestKnownBadge(t *testing.T) {
	for _, b := range []string{
		BadgeVerifiedEmail, BadgeVerifiedPhone, BadgeVerifiedID,
		BadgeTrustedMember, BadgeCommunityLeader, BadgeContentCreator,
	} {
		if !KnownBadge(b) {
			t.Errorf("KnownBadge(%q) = false, want true", b)
		}
	}
	if KnownBadge("super_admin") {
		t.Error("KnownBadge(super_admin) = true, want false")
	}
}

func TestBadgeBonus(t *testing.T) {
	tests := []struct {
		badge      string
		wantBucket Bucket
		wantAmount float64
	}{
		{BadgeVerifiedEmail, BucketVerification, 5.0},
		{BadgeVerifiedID, BucketVerification, 5.0},
		{BadgeTrustedMember, BucketCommunity, 10.0},
		{BadgeCommunityLeader, BucketCommunity, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.badge, func(t *testing.T) {
			bucket, amount := BadgeBonus(tt.badge)
			if bucket != tt.wantBucket || amount != tt.wantAmount {
				t.Errorf("BadgeBonus(%q) = (%v, %f), want (%v, %f)",
					tt.badge, bucket, amount, tt.wantBucket, tt.wantAmount)
			}
		})
	}
}
