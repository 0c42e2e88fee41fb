package models

import "time"

// MembershipStatus enumerates the stored lifecycle states of a membership.
// EXPIRED is intentionally not a stored state: whether a membership is past
// its end date is derived on read via IsCurrentlyActive.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "ACTIVE"
	MembershipStatusSuspended MembershipStatus = "SUSPENDED"
	MembershipStatusExpired   MembershipStatus = "EXPIRED"
	MembershipStatusCancelled MembershipStatus = "CANCELLED"
)

// Membership represents a member's subscription at a club location.
type Membership struct {
	ID               int64            `json:"id" db:"id"`
	MemberID         int64            `json:"member_id" db:"member_id"`
	MembershipTypeID int64            `json:"membership_type_id" db:"membership_type_id"`
	LocationID       int64            `json:"location_id" db:"location_id"`
	StartDate        time.Time        `json:"start_date" db:"start_date"`
	EndDate          time.Time        `json:"end_date" db:"end_date"`
	Status           MembershipStatus `json:"status" db:"status"`
	Price            float64          `json:"price" db:"price"`
	SuspensionStart  *time.Time       `json:"suspension_start,omitempty" db:"suspension_start"`
	SuspensionEnd    *time.Time       `json:"suspension_end,omitempty" db:"suspension_end"`
	SuspensionReason *string          `json:"suspension_reason,omitempty" db:"suspension_reason"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// IsCurrentlyActive reports whether the membership grants access at the given
// instant. The stored status never flips to EXPIRED when the end date passes;
// callers that care about calendar expiry must use this check.
func (m *Membership) IsCurrentlyActive(now time.Time) bool {
	return m.Status == MembershipStatusActive && !now.After(m.EndDate)
}

// MembershipType describes one of the curated membership plans.
type MembershipType struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    *string   `json:"description,omitempty" db:"description"`
	MonthlyPrice   float64   `json:"monthly_price" db:"monthly_price"`
	DurationMonths int       `json:"duration_months" db:"duration_months"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Location is a franchise gym location.
type Location struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Member is the identity record memberships and loyalty profiles hang off.
// Identity management itself happens upstream; the backend only resolves ids.
type Member struct {
	ID          int64     `json:"id" db:"id"`
	FullName    string    `json:"full_name" db:"full_name"`
	PhoneNumber *string   `json:"phone_number,omitempty" db:"phone_number"`
	Email       *string   `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
