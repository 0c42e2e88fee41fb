package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"
)

// LoyaltyActivityRepository defines the interface for the append-only
// activity ledger. Entries are immutable apart from the cancel/expire flags.
type LoyaltyActivityRepository interface {
	CreateActivity(executor SQLExecutor, activity *models.LoyaltyActivity) (int64, error)
	GetActivityByID(id int64) (*models.LoyaltyActivity, error)
	GetActivityByIDForUpdate(executor SQLExecutor, id int64) (*models.LoyaltyActivity, error)
	UpdateActivityFlags(executor SQLExecutor, activity *models.LoyaltyActivity) error
	GetActivitiesByMemberID(memberID int64, page, pageSize int) ([]models.LoyaltyActivity, int, error)
	GetExpirableActivities(now time.Time) ([]models.LoyaltyActivity, error)
}

type loyaltyActivityRepository struct {
	db *sql.DB
}

// NewLoyaltyActivityRepository creates a new instance of LoyaltyActivityRepository.
func NewLoyaltyActivityRepository(db *sql.DB) LoyaltyActivityRepository {
	return &loyaltyActivityRepository{db: db}
}

const activityColumns = `id, member_id, profile_id, activity_type, points_earned, description,
	reference_id, activity_date, expiration_date, is_bonus, is_cancelled, is_expired, created_at`

func scanActivity(s scanner) (*models.LoyaltyActivity, error) {
	a := &models.LoyaltyActivity{}
	var description, referenceID sql.NullString
	var expirationDate sql.NullTime
	err := s.Scan(
		&a.ID, &a.MemberID, &a.ProfileID, &a.ActivityType, &a.PointsEarned, &description,
		&referenceID, &a.ActivityDate, &expirationDate, &a.IsBonus, &a.IsCancelled, &a.IsExpired,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		a.Description = &description.String
	}
	if referenceID.Valid {
		a.ReferenceID = &referenceID.String
	}
	if expirationDate.Valid {
		a.ExpirationDate = &expirationDate.Time
	}
	return a, nil
}

// CreateActivity appends a new ledger entry.
func (r *loyaltyActivityRepository) CreateActivity(executor SQLExecutor, activity *models.LoyaltyActivity) (int64, error) {
	query := `INSERT INTO loyalty_activities
	            (member_id, profile_id, activity_type, points_earned, description, reference_id,
	             activity_date, expiration_date, is_bonus, is_cancelled, is_expired, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		activity.MemberID, activity.ProfileID, activity.ActivityType, activity.PointsEarned,
		activity.Description, activity.ReferenceID, activity.ActivityDate, activity.ExpirationDate,
		activity.IsBonus, activity.IsCancelled, activity.IsExpired, activity.CreatedAt,
	).Scan(&activity.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating loyalty activity: %v", ErrDatabaseError, err)
	}
	return activity.ID, nil
}

// GetActivityByID retrieves a ledger entry by its ID.
func (r *loyaltyActivityRepository) GetActivityByID(id int64) (*models.LoyaltyActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM loyalty_activities WHERE id = $1`
	activity, err := scanActivity(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty activity by ID %d: %v", ErrDatabaseError, id, err)
	}
	return activity, nil
}

// GetActivityByIDForUpdate locks a ledger entry row so cancellation cannot
// race with the expiry sweep over the same entry.
func (r *loyaltyActivityRepository) GetActivityByIDForUpdate(executor SQLExecutor, id int64) (*models.LoyaltyActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM loyalty_activities WHERE id = $1 FOR UPDATE`
	activity, err := scanActivity(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking loyalty activity ID %d: %v", ErrDatabaseError, id, err)
	}
	return activity, nil
}

// UpdateActivityFlags persists the cancel/expire flags of a ledger entry.
// All other columns are immutable once written.
func (r *loyaltyActivityRepository) UpdateActivityFlags(executor SQLExecutor, activity *models.LoyaltyActivity) error {
	query := `UPDATE loyalty_activities SET is_cancelled = $1, is_expired = $2 WHERE id = $3`
	result, err := executor.Exec(query, activity.IsCancelled, activity.IsExpired, activity.ID)
	if err != nil {
		return fmt.Errorf("%w: updating loyalty activity flags for ID %d: %v", ErrDatabaseError, activity.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for loyalty activity ID %d: %v", ErrDatabaseError, activity.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActivitiesByMemberID retrieves a member's ledger entries with
// pagination, newest first.
func (r *loyaltyActivityRepository) GetActivitiesByMemberID(memberID int64, page, pageSize int) ([]models.LoyaltyActivity, int, error) {
	query := `SELECT ` + activityColumns + `, COUNT(*) OVER() AS total_count
	          FROM loyalty_activities
	          WHERE member_id = $1
	          ORDER BY activity_date DESC, id DESC
	          LIMIT $2 OFFSET $3`

	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, memberID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying loyalty activities for member %d: %v", ErrDatabaseError, memberID, err)
	}
	defer rows.Close()

	activities := []models.LoyaltyActivity{}
	totalCount := 0
	for rows.Next() {
		a := models.LoyaltyActivity{}
		var description, referenceID sql.NullString
		var expirationDate sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.MemberID, &a.ProfileID, &a.ActivityType, &a.PointsEarned, &description,
			&referenceID, &a.ActivityDate, &expirationDate, &a.IsBonus, &a.IsCancelled, &a.IsExpired,
			&a.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning loyalty activity: %v", ErrDatabaseError, err)
		}
		if description.Valid {
			a.Description = &description.String
		}
		if referenceID.Valid {
			a.ReferenceID = &referenceID.String
		}
		if expirationDate.Valid {
			a.ExpirationDate = &expirationDate.Time
		}
		activities = append(activities, a)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating loyalty activity rows: %v", ErrDatabaseError, err)
	}
	return activities, totalCount, nil
}

// GetExpirableActivities returns entries whose points are due to expire:
// expiration date in the past, not yet expired, not cancelled. The guards in
// the WHERE clause are what keep the sweep idempotent.
func (r *loyaltyActivityRepository) GetExpirableActivities(now time.Time) ([]models.LoyaltyActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM loyalty_activities
	          WHERE expiration_date IS NOT NULL
	            AND expiration_date < $1
	            AND is_expired = FALSE
	            AND is_cancelled = FALSE
	          ORDER BY id ASC`
	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("%w: querying expirable loyalty activities: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	activities := []models.LoyaltyActivity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning expirable loyalty activity: %v", ErrDatabaseError, err)
		}
		activities = append(activities, *activity)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expirable loyalty activity rows: %v", ErrDatabaseError, err)
	}
	return activities, nil
}
