package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"
)

// RewardRepository defines the interface for the curated reward catalog.
type RewardRepository interface {
	CreateReward(executor SQLExecutor, reward *models.LoyaltyReward) (int64, error)
	GetRewardByID(id int64) (*models.LoyaltyReward, error)
	GetRewards(onlyActive bool) ([]models.LoyaltyReward, error)
	UpdateReward(executor SQLExecutor, reward *models.LoyaltyReward) error
}

type rewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new instance of RewardRepository.
func NewRewardRepository(db *sql.DB) RewardRepository {
	return &rewardRepository{db: db}
}

const rewardColumns = `id, name, description, reward_type, points_cost, minimum_tier_required,
	validity_days, is_active, created_at, updated_at`

func scanReward(s scanner) (*models.LoyaltyReward, error) {
	reward := &models.LoyaltyReward{}
	var description sql.NullString
	var minTier sql.NullString
	err := s.Scan(
		&reward.ID, &reward.Name, &description, &reward.RewardType, &reward.PointsCost,
		&minTier, &reward.ValidityDays, &reward.IsActive, &reward.CreatedAt, &reward.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		reward.Description = &description.String
	}
	if minTier.Valid {
		tier := models.LoyaltyTier(minTier.String)
		reward.MinimumTierRequired = &tier
	}
	return reward, nil
}

// CreateReward inserts a new catalog entry.
func (r *rewardRepository) CreateReward(executor SQLExecutor, reward *models.LoyaltyReward) (int64, error) {
	query := `INSERT INTO loyalty_rewards
	            (name, description, reward_type, points_cost, minimum_tier_required, validity_days,
	             is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	currentTime := time.Now()
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = currentTime
	}
	reward.UpdatedAt = currentTime

	var minTier *string
	if reward.MinimumTierRequired != nil {
		t := string(*reward.MinimumTierRequired)
		minTier = &t
	}

	err := executor.QueryRow(query,
		reward.Name, reward.Description, reward.RewardType, reward.PointsCost, minTier,
		reward.ValidityDays, reward.IsActive, reward.CreatedAt, reward.UpdatedAt,
	).Scan(&reward.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating loyalty reward: %v", ErrDatabaseError, err)
	}
	return reward.ID, nil
}

// GetRewardByID retrieves a catalog entry by its ID.
func (r *rewardRepository) GetRewardByID(id int64) (*models.LoyaltyReward, error) {
	query := `SELECT ` + rewardColumns + ` FROM loyalty_rewards WHERE id = $1`
	reward, err := scanReward(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty reward by ID %d: %v", ErrDatabaseError, id, err)
	}
	return reward, nil
}

// GetRewards retrieves catalog entries, optionally only the active ones,
// cheapest first.
func (r *rewardRepository) GetRewards(onlyActive bool) ([]models.LoyaltyReward, error) {
	query := `SELECT ` + rewardColumns + ` FROM loyalty_rewards`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY points_cost ASC, id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying loyalty rewards: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	rewards := []models.LoyaltyReward{}
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning loyalty reward: %v", ErrDatabaseError, err)
		}
		rewards = append(rewards, *reward)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating loyalty reward rows: %v", ErrDatabaseError, err)
	}
	return rewards, nil
}

// UpdateReward persists changes to a catalog entry.
func (r *rewardRepository) UpdateReward(executor SQLExecutor, reward *models.LoyaltyReward) error {
	query := `UPDATE loyalty_rewards SET
	            name = $1, description = $2, reward_type = $3, points_cost = $4,
	            minimum_tier_required = $5, validity_days = $6, is_active = $7, updated_at = $8
	          WHERE id = $9`

	reward.UpdatedAt = time.Now()
	var minTier *string
	if reward.MinimumTierRequired != nil {
		t := string(*reward.MinimumTierRequired)
		minTier = &t
	}

	result, err := executor.Exec(query,
		reward.Name, reward.Description, reward.RewardType, reward.PointsCost, minTier,
		reward.ValidityDays, reward.IsActive, reward.UpdatedAt, reward.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating loyalty reward ID %d: %v", ErrDatabaseError, reward.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for loyalty reward ID %d: %v", ErrDatabaseError, reward.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
