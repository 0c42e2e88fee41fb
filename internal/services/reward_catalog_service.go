package services

import (
	"errors"
	"fmt"
	"strings"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
)

// --- Custom Service Errors for the Reward Catalog ---
var (
	ErrRewardNotFound   = errors.New("loyalty reward not found")
	ErrRewardValidation = errors.New("reward data validation error")
)

var validRewardTypes = map[models.RewardType]bool{
	models.RewardFreeClass:               true,
	models.RewardRenewalDiscount:         true,
	models.RewardTemporaryUpgrade:        true,
	models.RewardPersonalTraining:        true,
	models.RewardGuestPass:               true,
	models.RewardMerchandiseDiscount:     true,
	models.RewardNutritionalConsultation: true,
	models.RewardExtensionDays:           true,
}

// --- Reward Catalog DTOs ---

type CreateRewardRequest struct {
	Name                string             `json:"name" binding:"required"`
	Description         *string            `json:"description"`
	RewardType          models.RewardType  `json:"reward_type" binding:"required"`
	PointsCost          int                `json:"points_cost" binding:"required"`
	MinimumTierRequired *models.LoyaltyTier `json:"minimum_tier_required"`
	ValidityDays        int                `json:"validity_days" binding:"required"`
}

type UpdateRewardRequest struct {
	Name                *string             `json:"name"`
	Description         *string             `json:"description"`
	PointsCost          *int                `json:"points_cost"`
	MinimumTierRequired *models.LoyaltyTier `json:"minimum_tier_required"`
	ValidityDays        *int                `json:"validity_days"`
	IsActive            *bool               `json:"is_active"`
}

// --- RewardCatalogService Interface ---

// RewardCatalogService manages the curated list of redeemable rewards and
// answers eligibility questions against a member's profile.
type RewardCatalogService interface {
	CreateReward(req CreateRewardRequest) (*models.LoyaltyReward, error)
	UpdateReward(rewardID int64, req UpdateRewardRequest) (*models.LoyaltyReward, error)
	DeactivateReward(rewardID int64) (*models.LoyaltyReward, error)
	GetRewardByID(rewardID int64) (*models.LoyaltyReward, error)
	GetRewards(onlyActive bool) ([]models.LoyaltyReward, error)
	ListAffordableRewards(memberID int64) ([]models.LoyaltyReward, error)
}

// MeetsTierRequirement reports whether the profile's tier satisfies the
// reward's minimum. Rewards without a minimum are open to every tier.
func MeetsTierRequirement(profile *models.LoyaltyProfile, reward *models.LoyaltyReward) bool {
	if reward.MinimumTierRequired == nil {
		return true
	}
	return profile.CurrentTier.AtLeast(*reward.MinimumTierRequired)
}

// --- rewardCatalogService Implementation ---

type rewardCatalogService struct {
	rewardRepo  repositories.RewardRepository
	profileRepo repositories.LoyaltyProfileRepository
	txManager   repositories.TxManager
}

// NewRewardCatalogService creates a new instance of RewardCatalogService.
func NewRewardCatalogService(
	rewardRepo repositories.RewardRepository,
	profileRepo repositories.LoyaltyProfileRepository,
	txManager repositories.TxManager,
) RewardCatalogService {
	return &rewardCatalogService{
		rewardRepo:  rewardRepo,
		profileRepo: profileRepo,
		txManager:   txManager,
	}
}

func validateRewardFields(name string, rewardType models.RewardType, pointsCost, validityDays int, minTier *models.LoyaltyTier) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrRewardValidation)
	}
	if !validRewardTypes[rewardType] {
		return fmt.Errorf("%w: unknown reward type %q", ErrRewardValidation, rewardType)
	}
	if pointsCost <= 0 {
		return fmt.Errorf("%w: points cost must be positive", ErrRewardValidation)
	}
	if validityDays <= 0 {
		return fmt.Errorf("%w: validity days must be positive", ErrRewardValidation)
	}
	if minTier != nil && minTier.Ordinal() < 0 {
		return fmt.Errorf("%w: unknown tier %q", ErrRewardValidation, *minTier)
	}
	return nil
}

func (s *rewardCatalogService) CreateReward(req CreateRewardRequest) (*models.LoyaltyReward, error) {
	if err := validateRewardFields(req.Name, req.RewardType, req.PointsCost, req.ValidityDays, req.MinimumTierRequired); err != nil {
		return nil, err
	}

	reward := &models.LoyaltyReward{
		Name:                req.Name,
		Description:         req.Description,
		RewardType:          req.RewardType,
		PointsCost:          req.PointsCost,
		MinimumTierRequired: req.MinimumTierRequired,
		ValidityDays:        req.ValidityDays,
		IsActive:            true,
	}

	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.rewardRepo.CreateReward(executor, reward)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}
	return reward, nil
}

func (s *rewardCatalogService) UpdateReward(rewardID int64, req UpdateRewardRequest) (*models.LoyaltyReward, error) {
	reward, err := s.GetRewardByID(rewardID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		reward.Name = *req.Name
	}
	if req.Description != nil {
		reward.Description = req.Description
	}
	if req.PointsCost != nil {
		reward.PointsCost = *req.PointsCost
	}
	if req.MinimumTierRequired != nil {
		reward.MinimumTierRequired = req.MinimumTierRequired
	}
	if req.ValidityDays != nil {
		reward.ValidityDays = *req.ValidityDays
	}
	if req.IsActive != nil {
		reward.IsActive = *req.IsActive
	}

	if err := validateRewardFields(reward.Name, reward.RewardType, reward.PointsCost, reward.ValidityDays, reward.MinimumTierRequired); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.rewardRepo.UpdateReward(executor, reward)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to update reward: %w", err)
	}
	return reward, nil
}

func (s *rewardCatalogService) DeactivateReward(rewardID int64) (*models.LoyaltyReward, error) {
	inactive := false
	return s.UpdateReward(rewardID, UpdateRewardRequest{IsActive: &inactive})
}

func (s *rewardCatalogService) GetRewardByID(rewardID int64) (*models.LoyaltyReward, error) {
	reward, err := s.rewardRepo.GetRewardByID(rewardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward by ID: %w", err)
	}
	return reward, nil
}

func (s *rewardCatalogService) GetRewards(onlyActive bool) ([]models.LoyaltyReward, error) {
	rewards, err := s.rewardRepo.GetRewards(onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	return rewards, nil
}

// ListAffordableRewards returns the active rewards whose cost the member's
// available balance covers. A member without a profile affords nothing.
func (s *rewardCatalogService) ListAffordableRewards(memberID int64) ([]models.LoyaltyReward, error) {
	profile, err := s.profileRepo.GetProfileByMemberID(memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.LoyaltyReward{}, nil
		}
		return nil, fmt.Errorf("failed to get loyalty profile: %w", err)
	}

	rewards, err := s.rewardRepo.GetRewards(true)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}

	affordable := []models.LoyaltyReward{}
	for _, reward := range rewards {
		if profile.AvailablePoints >= reward.PointsCost {
			affordable = append(affordable, reward)
		}
	}
	return affordable, nil
}
