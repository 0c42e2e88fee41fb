package models

import "time"

// LoyaltyTier is a member's loyalty rank, derived from tenure rather than
// point balance. Ordinal order gates reward eligibility.
type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "BRONZE"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
)

// tierOrdinals fixes the comparison order BRONZE < SILVER < GOLD < PLATINUM.
var tierOrdinals = map[LoyaltyTier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

// Ordinal returns the rank position of the tier, or -1 for an unknown tier.
func (t LoyaltyTier) Ordinal() int {
	ord, ok := tierOrdinals[t]
	if !ok {
		return -1
	}
	return ord
}

// AtLeast reports whether t ranks at or above other.
func (t LoyaltyTier) AtLeast(other LoyaltyTier) bool {
	return t.Ordinal() >= other.Ordinal()
}

// AllTiers lists every tier in ascending ordinal order.
func AllTiers() []LoyaltyTier {
	return []LoyaltyTier{TierBronze, TierSilver, TierGold, TierPlatinum}
}

// LoyaltyProfile holds a member's point balances, tier and activity counters.
// Accounting model: LifetimePoints is the monotone sum of every point ever
// earned; AvailablePoints = LifetimePoints - spent - expired - cancelled and
// never goes below zero.
type LoyaltyProfile struct {
	ID                   int64       `json:"id" db:"id"`
	MemberID             int64       `json:"member_id" db:"member_id"`
	AvailablePoints      int         `json:"available_points" db:"available_points"`
	LifetimePoints       int         `json:"lifetime_points" db:"lifetime_points"`
	CurrentTier          LoyaltyTier `json:"current_tier" db:"current_tier"`
	MemberSince          time.Time   `json:"member_since" db:"member_since"`
	ClassesAttended      int         `json:"classes_attended" db:"classes_attended"`
	RenewalsCompleted    int         `json:"renewals_completed" db:"renewals_completed"`
	TotalReferrals       int         `json:"total_referrals" db:"total_referrals"`
	ConsecutiveLoginDays int         `json:"consecutive_login_days" db:"consecutive_login_days"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

// ActivityType enumerates the point-earning event kinds.
type ActivityType string

const (
	ActivityMembershipPurchase      ActivityType = "MEMBERSHIP_PURCHASE"
	ActivityMembershipRenewal       ActivityType = "MEMBERSHIP_RENEWAL"
	ActivityClassAttendance         ActivityType = "CLASS_ATTENDANCE"
	ActivityPersonalTrainingSession ActivityType = "PERSONAL_TRAINING_SESSION"
	ActivityReferral                ActivityType = "REFERRAL"
	ActivityReview                  ActivityType = "REVIEW"
	ActivityAnniversary             ActivityType = "ANNIVERSARY"
	ActivityAppLogin                ActivityType = "APP_LOGIN"
)

// AllActivityTypes lists every activity type; tests assert the base point
// table covers each entry.
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityMembershipPurchase,
		ActivityMembershipRenewal,
		ActivityClassAttendance,
		ActivityPersonalTrainingSession,
		ActivityReferral,
		ActivityReview,
		ActivityAnniversary,
		ActivityAppLogin,
	}
}

// LoyaltyActivity is one append-only ledger entry. Entries are immutable
// once written except for the cancel/expire flags.
type LoyaltyActivity struct {
	ID             int64        `json:"id" db:"id"`
	MemberID       int64        `json:"member_id" db:"member_id"`
	ProfileID      int64        `json:"profile_id" db:"profile_id"`
	ActivityType   ActivityType `json:"activity_type" db:"activity_type"`
	PointsEarned   int          `json:"points_earned" db:"points_earned"`
	Description    *string      `json:"description,omitempty" db:"description"`
	ReferenceID    *string      `json:"reference_id,omitempty" db:"reference_id"`
	ActivityDate   time.Time    `json:"activity_date" db:"activity_date"`
	ExpirationDate *time.Time   `json:"expiration_date,omitempty" db:"expiration_date"`
	IsBonus        bool         `json:"is_bonus" db:"is_bonus"`
	IsCancelled    bool         `json:"is_cancelled" db:"is_cancelled"`
	IsExpired      bool         `json:"is_expired" db:"is_expired"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// RewardType enumerates the redeemable benefit kinds in the catalog.
type RewardType string

const (
	RewardFreeClass               RewardType = "FREE_CLASS"
	RewardRenewalDiscount         RewardType = "RENEWAL_DISCOUNT"
	RewardTemporaryUpgrade        RewardType = "TEMPORARY_UPGRADE"
	RewardPersonalTraining        RewardType = "PERSONAL_TRAINING"
	RewardGuestPass               RewardType = "GUEST_PASS"
	RewardMerchandiseDiscount     RewardType = "MERCHANDISE_DISCOUNT"
	RewardNutritionalConsultation RewardType = "NUTRITIONAL_CONSULTATION"
	RewardExtensionDays           RewardType = "EXTENSION_DAYS"
)

// LoyaltyReward is a curated catalog entry members can redeem points for.
type LoyaltyReward struct {
	ID                  int64        `json:"id" db:"id"`
	Name                string       `json:"name" db:"name"`
	Description         *string      `json:"description,omitempty" db:"description"`
	RewardType          RewardType   `json:"reward_type" db:"reward_type"`
	PointsCost          int          `json:"points_cost" db:"points_cost"`
	MinimumTierRequired *LoyaltyTier `json:"minimum_tier_required,omitempty" db:"minimum_tier_required"`
	ValidityDays        int          `json:"validity_days" db:"validity_days"`
	IsActive            bool         `json:"is_active" db:"is_active"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// RedemptionStatus enumerates redemption code states. USED is terminal.
type RedemptionStatus string

const (
	RedemptionStatusActive  RedemptionStatus = "ACTIVE"
	RedemptionStatusUsed    RedemptionStatus = "USED"
	RedemptionStatusExpired RedemptionStatus = "EXPIRED"
)

// LoyaltyRedemption records a points-for-reward exchange and the single-use
// code issued for it.
type LoyaltyRedemption struct {
	ID                 int64            `json:"id" db:"id"`
	MemberID           int64            `json:"member_id" db:"member_id"`
	ProfileID          int64            `json:"profile_id" db:"profile_id"`
	RewardID           int64            `json:"reward_id" db:"reward_id"`
	RedemptionCode     string           `json:"redemption_code" db:"redemption_code"`
	PointsSpent        int              `json:"points_spent" db:"points_spent"`
	Status             RedemptionStatus `json:"status" db:"status"`
	Notes              *string          `json:"notes,omitempty" db:"notes"`
	RedemptionDate     time.Time        `json:"redemption_date" db:"redemption_date"`
	ExpirationDate     time.Time        `json:"expiration_date" db:"expiration_date"`
	UsedDate           *time.Time       `json:"used_date,omitempty" db:"used_date"`
	AppliedReferenceID *string          `json:"applied_reference_id,omitempty" db:"applied_reference_id"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the redemption's validity window has passed.
func (r *LoyaltyRedemption) IsExpired(now time.Time) bool {
	return now.After(r.ExpirationDate)
}
