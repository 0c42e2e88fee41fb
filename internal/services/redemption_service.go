package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Redemptions ---
var (
	ErrRedemptionNotFound  = errors.New("redemption not found")
	ErrRewardInactive      = errors.New("reward is not active")
	ErrTierNotMet          = errors.New("member tier does not meet the reward requirement")
	ErrCodeAlreadyUsed     = errors.New("redemption code has already been used")
	ErrCodeExpired         = errors.New("redemption code has expired")
	ErrCodeGenerationRetry = errors.New("could not generate a unique redemption code")
)

// codeGenerationAttempts bounds the retry loop on a redemption-code
// collision against the unique index.
const codeGenerationAttempts = 3

// --- Redemption DTOs ---

type RedeemRewardRequest struct {
	MemberID int64   `json:"member_id" binding:"required"`
	RewardID int64   `json:"reward_id" binding:"required"`
	Notes    *string `json:"notes"`
}

// CodeValidation is the answer to a front-desk code lookup.
type CodeValidation struct {
	Redemption *models.LoyaltyRedemption `json:"redemption"`
	CanBeUsed  bool                      `json:"can_be_used"`
}

// --- RedemptionService Interface ---

// RedemptionService converts points into single-use redemption codes and
// tracks their consumption. Codes transition ACTIVE -> USED (terminal) or
// ACTIVE -> EXPIRED via the sweep.
type RedemptionService interface {
	RedeemReward(req RedeemRewardRequest) (*models.LoyaltyRedemption, error)
	ValidateCode(code string) (*CodeValidation, error)
	MarkRedemptionUsed(code string, appliedReferenceID string) (*models.LoyaltyRedemption, error)
	ProcessExpiredRedemptions(now time.Time) (int, error)
	GetMemberRedemptions(memberID int64) ([]models.LoyaltyRedemption, error)
}

// --- redemptionService Implementation ---

type redemptionService struct {
	redemptionRepo repositories.RedemptionRepository
	rewardRepo     repositories.RewardRepository
	profileRepo    repositories.LoyaltyProfileRepository
	txManager      repositories.TxManager
	notifier       Notifier
	now            func() time.Time
	generateCode   func() string
}

// NewRedemptionService creates a new instance of RedemptionService.
func NewRedemptionService(
	redemptionRepo repositories.RedemptionRepository,
	rewardRepo repositories.RewardRepository,
	profileRepo repositories.LoyaltyProfileRepository,
	txManager repositories.TxManager,
	notifier Notifier,
) RedemptionService {
	return &redemptionService{
		redemptionRepo: redemptionRepo,
		rewardRepo:     rewardRepo,
		profileRepo:    profileRepo,
		txManager:      txManager,
		notifier:       notifier,
		now:            time.Now,
		generateCode:   newRedemptionCode,
	}
}

// newRedemptionCode produces an opaque globally-unique code. Uniqueness is
// still enforced by the database index; the service retries on collision.
func newRedemptionCode() string {
	return "RDM-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// RedeemReward spends points on a catalog reward and issues a single-use
// code. The tier check, the balance check, the debit and the redemption
// insert all happen in one transaction under a profile row lock, so two
// concurrent redemptions cannot both spend the same points.
func (s *redemptionService) RedeemReward(req RedeemRewardRequest) (*models.LoyaltyRedemption, error) {
	reward, err := s.rewardRepo.GetRewardByID(req.RewardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}

	var redemption *models.LoyaltyRedemption
	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		profile, err := getOrCreateProfileForUpdate(executor, s.profileRepo, req.MemberID, s.now())
		if err != nil {
			return err
		}
		if !MeetsTierRequirement(profile, reward) {
			return ErrTierNotMet
		}
		if profile.AvailablePoints < reward.PointsCost {
			return ErrInsufficientPoints
		}

		profile.AvailablePoints -= reward.PointsCost
		if err := s.profileRepo.UpdateProfile(executor, profile); err != nil {
			return err
		}

		redeemedAt := s.now()
		entry := &models.LoyaltyRedemption{
			MemberID:       req.MemberID,
			ProfileID:      profile.ID,
			RewardID:       reward.ID,
			PointsSpent:    reward.PointsCost,
			Status:         models.RedemptionStatusActive,
			Notes:          req.Notes,
			RedemptionDate: redeemedAt,
			ExpirationDate: redeemedAt.AddDate(0, 0, reward.ValidityDays),
		}
		for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
			entry.RedemptionCode = s.generateCode()
			_, err = s.redemptionRepo.CreateRedemption(executor, entry)
			if err == nil {
				redemption = entry
				return nil
			}
			if !errors.Is(err, repositories.ErrDuplicateKey) {
				return err
			}
		}
		return fmt.Errorf("%w after %d attempts", ErrCodeGenerationRetry, codeGenerationAttempts)
	})
	if err != nil {
		return nil, err
	}

	notifyBestEffort(s.notifier, req.MemberID, NotificationRedemptionConfirmation, map[string]string{
		"reward_name":     reward.Name,
		"redemption_code": redemption.RedemptionCode,
		"points_spent":    strconv.Itoa(redemption.PointsSpent),
	})
	return redemption, nil
}

// ValidateCode looks up a redemption and reports whether the code can still
// be consumed right now.
func (s *redemptionService) ValidateCode(code string) (*CodeValidation, error) {
	redemption, err := s.redemptionRepo.GetRedemptionByCode(code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRedemptionNotFound
		}
		return nil, fmt.Errorf("failed to get redemption by code: %w", err)
	}
	return &CodeValidation{
		Redemption: redemption,
		CanBeUsed:  redemption.Status == models.RedemptionStatusActive && !redemption.IsExpired(s.now()),
	}, nil
}

// MarkRedemptionUsed consumes a code exactly once. A code found to be past
// its validity window is moved to EXPIRED (and that transition committed)
// before the expiry error is returned.
func (s *redemptionService) MarkRedemptionUsed(code string, appliedReferenceID string) (*models.LoyaltyRedemption, error) {
	var redemption *models.LoyaltyRedemption
	var expiredNow bool
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		entry, err := s.redemptionRepo.GetRedemptionByCodeForUpdate(executor, code)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrRedemptionNotFound
			}
			return err
		}

		switch entry.Status {
		case models.RedemptionStatusUsed:
			return ErrCodeAlreadyUsed
		case models.RedemptionStatusExpired:
			return ErrCodeExpired
		}

		if entry.IsExpired(s.now()) {
			entry.Status = models.RedemptionStatusExpired
			if err := s.redemptionRepo.UpdateRedemption(executor, entry); err != nil {
				return err
			}
			expiredNow = true
			redemption = entry
			return nil
		}

		usedAt := s.now()
		entry.Status = models.RedemptionStatusUsed
		entry.UsedDate = &usedAt
		if appliedReferenceID != "" {
			entry.AppliedReferenceID = &appliedReferenceID
		}
		if err := s.redemptionRepo.UpdateRedemption(executor, entry); err != nil {
			return err
		}
		redemption = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expiredNow {
		return nil, ErrCodeExpired
	}
	return redemption, nil
}

// ProcessExpiredRedemptions sweeps ACTIVE redemptions whose validity window
// has passed and marks them EXPIRED. Rows are re-checked under a lock, so
// re-running the sweep is harmless.
func (s *redemptionService) ProcessExpiredRedemptions(now time.Time) (int, error) {
	expirable, err := s.redemptionRepo.GetExpirableRedemptions(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable redemptions: %w", err)
	}

	expired := 0
	for i := range expirable {
		code := expirable[i].RedemptionCode
		err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
			entry, err := s.redemptionRepo.GetRedemptionByCodeForUpdate(executor, code)
			if err != nil {
				return err
			}
			if entry.Status != models.RedemptionStatusActive || !entry.IsExpired(now) {
				return nil
			}
			entry.Status = models.RedemptionStatusExpired
			if err := s.redemptionRepo.UpdateRedemption(executor, entry); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			return expired, fmt.Errorf("failed to expire redemption %s: %w", code, err)
		}
	}
	return expired, nil
}

func (s *redemptionService) GetMemberRedemptions(memberID int64) ([]models.LoyaltyRedemption, error) {
	redemptions, err := s.redemptionRepo.GetRedemptionsByMemberID(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member redemptions: %w", err)
	}
	return redemptions, nil
}
