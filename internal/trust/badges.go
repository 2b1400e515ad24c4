package trust

import "strings"

// Badge types a user can earn. The verified_* family is tied to
// verification milestones; the rest are community grants.
const (
	BadgeVerifiedEmail   = "verified_email"
	BadgeVerifiedPhone   = "verified_phone"
	BadgeVerifiedID      = "verified_id"
	BadgeTrustedMember   = "trusted_member"
	BadgeCommunityLeader = "community_leader"
	BadgeContentCreator  = "content_creator"
)

var knownBadges = map[string]struct{}{
	BadgeVerifiedEmail:   {},
	BadgeVerifiedPhone:   {},
	BadgeVerifiedID:      {},
	BadgeTrustedMember:   {},
	BadgeCommunityLeader: {},
	BadgeContentCreator:  {},
}

// KnownBadge reports whether badgeType is a recognised badge.
func KnownBadge(badgeType string) bool {
	_, ok := knownBadges[badgeType]
	return ok
}

// BadgeBonus returns the one-time ledger bonus for a freshly awarded
// badge: verification badges add 5 to the verification bonus, community
// badges add 10 to the community component.
func BadgeBonus(badgeType string) (Bucket, float64) {
	if strings.HasPrefix(badgeType, "verified_") {
		return BucketVerification, DeltaVerificationBadge
	}
	return BucketCommunity, 10.0
}
