package services

import (
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
)

// --- Custom Service Errors for the Activity Ledger ---
var (
	ErrActivityNotFound    = errors.New("loyalty activity not found")
	ErrUnknownActivityType = errors.New("unknown activity type")
	ErrMembershipNotActive = errors.New("member does not hold an active membership")
)

// basePointsByActivity fixes the point value of each activity type. The
// table is the single source of truth; TestBasePointsTableIsExhaustive
// asserts it covers every ActivityType.
var basePointsByActivity = map[models.ActivityType]int{
	models.ActivityMembershipPurchase:      100,
	models.ActivityMembershipRenewal:       80,
	models.ActivityClassAttendance:         10,
	models.ActivityPersonalTrainingSession: 25,
	models.ActivityReferral:                200,
	models.ActivityReview:                  50,
	models.ActivityAnniversary:             150,
	models.ActivityAppLogin:                2,
}

// bonusMultiplier doubles the base points of entries flagged as bonus.
const bonusMultiplier = 2

// BasePointsFor returns the base point value of an activity type.
func BasePointsFor(activityType models.ActivityType) (int, bool) {
	points, ok := basePointsByActivity[activityType]
	return points, ok
}

// --- Activity Ledger DTOs ---

type LogActivityRequest struct {
	MemberID     int64               `json:"member_id" binding:"required"`
	ActivityType models.ActivityType `json:"activity_type" binding:"required"`
	IsBonus      bool                `json:"is_bonus"`
	Description  *string             `json:"description"`
	ReferenceID  *string             `json:"reference_id"`
}

// --- LoyaltyActivityService Interface ---

// LoyaltyActivityService is the append-only ledger of point-earning events.
// Entries are immutable once written; cancellation and expiry only flip
// flags and adjust the profile's available balance.
type LoyaltyActivityService interface {
	LogActivity(req LogActivityRequest) (*models.LoyaltyActivity, error)
	LogActivityWithExpiry(req LogActivityRequest, expiresAt time.Time) (*models.LoyaltyActivity, error)
	CancelActivity(activityID int64) (*models.LoyaltyActivity, error)
	ProcessExpiredPoints(now time.Time) (int, error)
	GetMemberActivities(memberID int64, page, pageSize int) ([]models.LoyaltyActivity, int, error)
}

// --- loyaltyActivityService Implementation ---

type loyaltyActivityService struct {
	activityRepo   repositories.LoyaltyActivityRepository
	profileRepo    repositories.LoyaltyProfileRepository
	membershipRepo repositories.MembershipRepository
	txManager      repositories.TxManager
	now            func() time.Time
}

// NewLoyaltyActivityService creates a new instance of LoyaltyActivityService.
func NewLoyaltyActivityService(
	activityRepo repositories.LoyaltyActivityRepository,
	profileRepo repositories.LoyaltyProfileRepository,
	membershipRepo repositories.MembershipRepository,
	txManager repositories.TxManager,
) LoyaltyActivityService {
	return &loyaltyActivityService{
		activityRepo:   activityRepo,
		profileRepo:    profileRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		now:            time.Now,
	}
}

// LogActivity appends a ledger entry and credits the member's profile.
// Points credited this way never expire.
func (s *loyaltyActivityService) LogActivity(req LogActivityRequest) (*models.LoyaltyActivity, error) {
	return s.logActivity(req, nil)
}

// LogActivityWithExpiry appends a ledger entry whose points lapse at the
// given instant unless spent first. Used for promotional credits; the
// normal earning path goes through LogActivity and never sets an expiry.
func (s *loyaltyActivityService) LogActivityWithExpiry(req LogActivityRequest, expiresAt time.Time) (*models.LoyaltyActivity, error) {
	return s.logActivity(req, &expiresAt)
}

func (s *loyaltyActivityService) logActivity(req LogActivityRequest, expiresAt *time.Time) (*models.LoyaltyActivity, error) {
	basePoints, ok := BasePointsFor(req.ActivityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, req.ActivityType)
	}

	membership, err := s.membershipRepo.GetActiveOrSuspendedByMemberID(req.MemberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipNotActive
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if membership.Status != models.MembershipStatusActive {
		return nil, ErrMembershipNotActive
	}

	points := basePoints
	if req.IsBonus {
		points *= bonusMultiplier
	}

	var activity *models.LoyaltyActivity
	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		profile, err := getOrCreateProfileForUpdate(executor, s.profileRepo, req.MemberID, s.now())
		if err != nil {
			return err
		}

		entry := &models.LoyaltyActivity{
			MemberID:       req.MemberID,
			ProfileID:      profile.ID,
			ActivityType:   req.ActivityType,
			PointsEarned:   points,
			Description:    req.Description,
			ReferenceID:    req.ReferenceID,
			ActivityDate:   s.now(),
			ExpirationDate: expiresAt,
			IsBonus:        req.IsBonus,
		}
		if _, err := s.activityRepo.CreateActivity(executor, entry); err != nil {
			return err
		}

		profile.AvailablePoints += points
		profile.LifetimePoints += points
		bumpActivityCounter(profile, req.ActivityType)
		if err := s.profileRepo.UpdateProfile(executor, profile); err != nil {
			return err
		}

		activity = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log loyalty activity: %w", err)
	}
	return activity, nil
}

// bumpActivityCounter updates the profile counter keyed by activity type.
func bumpActivityCounter(profile *models.LoyaltyProfile, activityType models.ActivityType) {
	switch activityType {
	case models.ActivityClassAttendance:
		profile.ClassesAttended++
	case models.ActivityMembershipRenewal:
		profile.RenewalsCompleted++
	case models.ActivityReferral:
		profile.TotalReferrals++
	case models.ActivityAppLogin:
		profile.ConsecutiveLoginDays++
	}
}

// CancelActivity flags a ledger entry as cancelled and claws its points back
// from the member's available balance, floored at zero. The lifetime total is
// untouched: cancellation reduces what is spendable, not what was earned.
// Cancelling an already-cancelled entry is a no-op.
func (s *loyaltyActivityService) CancelActivity(activityID int64) (*models.LoyaltyActivity, error) {
	var activity *models.LoyaltyActivity
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		entry, err := s.activityRepo.GetActivityByIDForUpdate(executor, activityID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
		if entry.IsCancelled {
			activity = entry
			return nil
		}

		entry.IsCancelled = true
		if err := s.activityRepo.UpdateActivityFlags(executor, entry); err != nil {
			return err
		}

		profile, err := s.profileRepo.GetProfileByMemberIDForUpdate(executor, entry.MemberID)
		if err != nil {
			return err
		}
		profile.AvailablePoints -= entry.PointsEarned
		if profile.AvailablePoints < 0 {
			profile.AvailablePoints = 0
		}
		if err := s.profileRepo.UpdateProfile(executor, profile); err != nil {
			return err
		}

		activity = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// ProcessExpiredPoints sweeps ledger entries whose expiration date has
// passed, flagging them and deducting their points from the owning profile's
// available balance, floored at zero. Entries are re-checked under a row
// lock, so re-running the sweep never double-deducts.
func (s *loyaltyActivityService) ProcessExpiredPoints(now time.Time) (int, error) {
	expirable, err := s.activityRepo.GetExpirableActivities(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable activities: %w", err)
	}

	expired := 0
	for i := range expirable {
		activityID := expirable[i].ID
		err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
			entry, err := s.activityRepo.GetActivityByIDForUpdate(executor, activityID)
			if err != nil {
				return err
			}
			if entry.IsExpired || entry.IsCancelled {
				return nil
			}
			if entry.ExpirationDate == nil || !entry.ExpirationDate.Before(now) {
				return nil
			}

			entry.IsExpired = true
			if err := s.activityRepo.UpdateActivityFlags(executor, entry); err != nil {
				return err
			}

			profile, err := s.profileRepo.GetProfileByMemberIDForUpdate(executor, entry.MemberID)
			if err != nil {
				return err
			}
			profile.AvailablePoints -= entry.PointsEarned
			if profile.AvailablePoints < 0 {
				profile.AvailablePoints = 0
			}
			if err := s.profileRepo.UpdateProfile(executor, profile); err != nil {
				return err
			}

			expired++
			return nil
		})
		if err != nil {
			return expired, fmt.Errorf("failed to expire activity %d: %w", activityID, err)
		}
	}
	return expired, nil
}

func (s *loyaltyActivityService) GetMemberActivities(memberID int64, page, pageSize int) ([]models.LoyaltyActivity, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	activities, totalCount, err := s.activityRepo.GetActivitiesByMemberID(memberID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get member activities: %w", err)
	}
	return activities, totalCount, nil
}
