package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
)

// --- Custom Service Errors for Loyalty Profiles ---
var (
	ErrProfileNotFound     = errors.New("loyalty profile not found")
	ErrInsufficientPoints  = errors.New("insufficient loyalty points")
	ErrInvalidPointsAmount = errors.New("points amount must be positive")
)

// Tier tenure thresholds, in whole months since the profile was created.
const (
	silverTenureMonths   = 6
	goldTenureMonths     = 12
	platinumTenureMonths = 24
)

// TierForTenure maps membership tenure to a loyalty tier. It is monotone:
// for a fixed member-since date, later evaluations never produce a lower tier.
func TierForTenure(tenureMonths int) models.LoyaltyTier {
	switch {
	case tenureMonths >= platinumTenureMonths:
		return models.TierPlatinum
	case tenureMonths >= goldTenureMonths:
		return models.TierGold
	case tenureMonths >= silverTenureMonths:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// MonthsBetween counts whole calendar months elapsed from one date to
// another. A partially elapsed month does not count.
func MonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// --- LoyaltyProfileService Interface ---

// LoyaltyProfileService manages per-member balances and tier state.
// Profiles are created lazily on first loyalty interaction. Tier derives
// from tenure via the batch sweep, not from point balance.
type LoyaltyProfileService interface {
	GetOrCreateProfile(memberID int64) (*models.LoyaltyProfile, error)
	GetProfileByMemberID(memberID int64) (*models.LoyaltyProfile, error)
	AddPoints(memberID int64, points int) (*models.LoyaltyProfile, error)
	DeductPoints(memberID int64, points int) (*models.LoyaltyProfile, error)
	RecomputeAllTiers(now time.Time) (int, error)
}

// --- loyaltyProfileService Implementation ---

type loyaltyProfileService struct {
	profileRepo repositories.LoyaltyProfileRepository
	txManager   repositories.TxManager
	notifier    Notifier
	now         func() time.Time
}

// NewLoyaltyProfileService creates a new instance of LoyaltyProfileService.
func NewLoyaltyProfileService(
	profileRepo repositories.LoyaltyProfileRepository,
	txManager repositories.TxManager,
	notifier Notifier,
) LoyaltyProfileService {
	return &loyaltyProfileService{
		profileRepo: profileRepo,
		txManager:   txManager,
		notifier:    notifier,
		now:         time.Now,
	}
}

// newProfile builds a fresh zero-balance BRONZE profile for a member.
func newProfile(memberID int64, now time.Time) *models.LoyaltyProfile {
	return &models.LoyaltyProfile{
		MemberID:    memberID,
		CurrentTier: models.TierBronze,
		MemberSince: now,
	}
}

// getOrCreateProfileForUpdate returns the member's profile row locked for
// the surrounding transaction, creating it first when the member has never
// interacted with the loyalty program. A concurrent create loses the unique
// constraint race and falls back to locking the winner's row.
func getOrCreateProfileForUpdate(
	executor repositories.SQLExecutor,
	profileRepo repositories.LoyaltyProfileRepository,
	memberID int64,
	now time.Time,
) (*models.LoyaltyProfile, error) {
	profile, err := profileRepo.GetProfileByMemberIDForUpdate(executor, memberID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	created := newProfile(memberID, now)
	if _, err := profileRepo.CreateProfile(executor, created); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return profileRepo.GetProfileByMemberIDForUpdate(executor, memberID)
		}
		return nil, err
	}
	return created, nil
}

func (s *loyaltyProfileService) GetOrCreateProfile(memberID int64) (*models.LoyaltyProfile, error) {
	profile, err := s.profileRepo.GetProfileByMemberID(memberID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to get loyalty profile: %w", err)
	}

	var created *models.LoyaltyProfile
	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		p, err := getOrCreateProfileForUpdate(executor, s.profileRepo, memberID, s.now())
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create loyalty profile: %w", err)
	}
	return created, nil
}

func (s *loyaltyProfileService) GetProfileByMemberID(memberID int64) (*models.LoyaltyProfile, error) {
	profile, err := s.profileRepo.GetProfileByMemberID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get loyalty profile: %w", err)
	}
	return profile, nil
}

// AddPoints credits earned points to both the available balance and the
// monotone lifetime total.
func (s *loyaltyProfileService) AddPoints(memberID int64, points int) (*models.LoyaltyProfile, error) {
	if points <= 0 {
		return nil, ErrInvalidPointsAmount
	}

	var profile *models.LoyaltyProfile
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		p, err := getOrCreateProfileForUpdate(executor, s.profileRepo, memberID, s.now())
		if err != nil {
			return err
		}
		p.AvailablePoints += points
		p.LifetimePoints += points
		if err := s.profileRepo.UpdateProfile(executor, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	return profile, nil
}

// DeductPoints spends points from the available balance. The balance is
// checked and mutated under a row lock so concurrent deductions against the
// same profile cannot both succeed on one reward's worth of points.
func (s *loyaltyProfileService) DeductPoints(memberID int64, points int) (*models.LoyaltyProfile, error) {
	if points <= 0 {
		return nil, ErrInvalidPointsAmount
	}

	var profile *models.LoyaltyProfile
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		p, err := s.profileRepo.GetProfileByMemberIDForUpdate(executor, memberID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if p.AvailablePoints < points {
			return ErrInsufficientPoints
		}
		p.AvailablePoints -= points
		if err := s.profileRepo.UpdateProfile(executor, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// RecomputeAllTiers sweeps every profile, promoting tiers that tenure now
// justifies. Tiers never downgrade. Returns the number of promotions.
func (s *loyaltyProfileService) RecomputeAllTiers(now time.Time) (int, error) {
	profiles, err := s.profileRepo.GetAllProfiles()
	if err != nil {
		return 0, fmt.Errorf("failed to list loyalty profiles: %w", err)
	}

	upgraded := 0
	for i := range profiles {
		memberID := profiles[i].MemberID
		target := TierForTenure(MonthsBetween(profiles[i].MemberSince, now))
		if !target.AtLeast(profiles[i].CurrentTier) || target == profiles[i].CurrentTier {
			continue
		}

		var promotedFrom models.LoyaltyTier
		err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
			p, err := s.profileRepo.GetProfileByMemberIDForUpdate(executor, memberID)
			if err != nil {
				return err
			}
			// Re-check under the lock; a concurrent sweep may have promoted already.
			target := TierForTenure(MonthsBetween(p.MemberSince, now))
			if !target.AtLeast(p.CurrentTier) || target == p.CurrentTier {
				return nil
			}
			promotedFrom = p.CurrentTier
			p.CurrentTier = target
			return s.profileRepo.UpdateProfile(executor, p)
		})
		if err != nil {
			return upgraded, fmt.Errorf("failed to recompute tier for member %d: %w", memberID, err)
		}
		if promotedFrom != "" {
			upgraded++
			notifyBestEffort(s.notifier, memberID, NotificationTierUpgrade, map[string]string{
				"previous_tier": string(promotedFrom),
				"new_tier":      string(target),
				"member_id":     strconv.FormatInt(memberID, 10),
			})
		}
	}
	return upgraded, nil
}
