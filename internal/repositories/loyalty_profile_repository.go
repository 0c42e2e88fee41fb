package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// LoyaltyProfileRepository defines the interface for loyalty profile database operations.
type LoyaltyProfileRepository interface {
	CreateProfile(executor SQLExecutor, profile *models.LoyaltyProfile) (int64, error)
	GetProfileByID(id int64) (*models.LoyaltyProfile, error)
	GetProfileByMemberID(memberID int64) (*models.LoyaltyProfile, error)
	GetProfileByMemberIDForUpdate(executor SQLExecutor, memberID int64) (*models.LoyaltyProfile, error)
	UpdateProfile(executor SQLExecutor, profile *models.LoyaltyProfile) error
	GetAllProfiles() ([]models.LoyaltyProfile, error)
}

type loyaltyProfileRepository struct {
	db *sql.DB
}

// NewLoyaltyProfileRepository creates a new instance of LoyaltyProfileRepository.
func NewLoyaltyProfileRepository(db *sql.DB) LoyaltyProfileRepository {
	return &loyaltyProfileRepository{db: db}
}

const profileColumns = `id, member_id, available_points, lifetime_points, current_tier, member_since,
	classes_attended, renewals_completed, total_referrals, consecutive_login_days, created_at, updated_at`

func scanProfile(s scanner) (*models.LoyaltyProfile, error) {
	p := &models.LoyaltyProfile{}
	err := s.Scan(
		&p.ID, &p.MemberID, &p.AvailablePoints, &p.LifetimePoints, &p.CurrentTier, &p.MemberSince,
		&p.ClassesAttended, &p.RenewalsCompleted, &p.TotalReferrals, &p.ConsecutiveLoginDays,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProfile inserts a new loyalty profile. The member_id column carries a
// unique constraint; a concurrent create surfaces as ErrDuplicateKey so the
// caller can fall back to re-reading the winner's row.
func (r *loyaltyProfileRepository) CreateProfile(executor SQLExecutor, profile *models.LoyaltyProfile) (int64, error) {
	query := `INSERT INTO loyalty_profiles
	            (member_id, available_points, lifetime_points, current_tier, member_since,
	             classes_attended, renewals_completed, total_referrals, consecutive_login_days,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	currentTime := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = currentTime
	}
	profile.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		profile.MemberID, profile.AvailablePoints, profile.LifetimePoints, profile.CurrentTier,
		profile.MemberSince, profile.ClassesAttended, profile.RenewalsCompleted,
		profile.TotalReferrals, profile.ConsecutiveLoginDays, profile.CreatedAt, profile.UpdatedAt,
	).Scan(&profile.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating loyalty profile: %v", ErrDatabaseError, err)
	}
	return profile.ID, nil
}

// GetProfileByID retrieves a loyalty profile by its surrogate ID.
func (r *loyaltyProfileRepository) GetProfileByID(id int64) (*models.LoyaltyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM loyalty_profiles WHERE id = $1`
	profile, err := scanProfile(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty profile by ID %d: %v", ErrDatabaseError, id, err)
	}
	return profile, nil
}

// GetProfileByMemberID retrieves the profile owned by a member.
func (r *loyaltyProfileRepository) GetProfileByMemberID(memberID int64) (*models.LoyaltyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM loyalty_profiles WHERE member_id = $1`
	profile, err := scanProfile(r.db.QueryRow(query, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty profile for member %d: %v", ErrDatabaseError, memberID, err)
	}
	return profile, nil
}

// GetProfileByMemberIDForUpdate retrieves the member's profile row under a
// row lock. Every balance mutation goes through this so concurrent debits
// against the same profile serialize instead of losing updates.
func (r *loyaltyProfileRepository) GetProfileByMemberIDForUpdate(executor SQLExecutor, memberID int64) (*models.LoyaltyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM loyalty_profiles WHERE member_id = $1 FOR UPDATE`
	profile, err := scanProfile(executor.QueryRow(query, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking loyalty profile for member %d: %v", ErrDatabaseError, memberID, err)
	}
	return profile, nil
}

// UpdateProfile persists the balances, tier and counters of a profile.
func (r *loyaltyProfileRepository) UpdateProfile(executor SQLExecutor, profile *models.LoyaltyProfile) error {
	query := `UPDATE loyalty_profiles SET
	            available_points = $1, lifetime_points = $2, current_tier = $3,
	            classes_attended = $4, renewals_completed = $5, total_referrals = $6,
	            consecutive_login_days = $7, updated_at = $8
	          WHERE id = $9`

	profile.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		profile.AvailablePoints, profile.LifetimePoints, profile.CurrentTier,
		profile.ClassesAttended, profile.RenewalsCompleted, profile.TotalReferrals,
		profile.ConsecutiveLoginDays, profile.UpdatedAt, profile.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating loyalty profile ID %d: %v", ErrDatabaseError, profile.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for loyalty profile ID %d: %v", ErrDatabaseError, profile.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllProfiles retrieves every loyalty profile, used by the tier sweep.
func (r *loyaltyProfileRepository) GetAllProfiles() ([]models.LoyaltyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM loyalty_profiles ORDER BY id ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying loyalty profiles: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	profiles := []models.LoyaltyProfile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning loyalty profile: %v", ErrDatabaseError, err)
		}
		profiles = append(profiles, *profile)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating loyalty profile rows: %v", ErrDatabaseError, err)
	}
	return profiles, nil
}
