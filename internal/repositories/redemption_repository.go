package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// RedemptionRepository defines the interface for redemption database operations.
type RedemptionRepository interface {
	CreateRedemption(executor SQLExecutor, redemption *models.LoyaltyRedemption) (int64, error)
	GetRedemptionByID(id int64) (*models.LoyaltyRedemption, error)
	GetRedemptionByCode(code string) (*models.LoyaltyRedemption, error)
	GetRedemptionByCodeForUpdate(executor SQLExecutor, code string) (*models.LoyaltyRedemption, error)
	UpdateRedemption(executor SQLExecutor, redemption *models.LoyaltyRedemption) error
	GetRedemptionsByMemberID(memberID int64) ([]models.LoyaltyRedemption, error)
	GetExpirableRedemptions(now time.Time) ([]models.LoyaltyRedemption, error)
}

type redemptionRepository struct {
	db *sql.DB
}

// NewRedemptionRepository creates a new instance of RedemptionRepository.
func NewRedemptionRepository(db *sql.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

const redemptionColumns = `id, member_id, profile_id, reward_id, redemption_code, points_spent,
	status, notes, redemption_date, expiration_date, used_date, applied_reference_id, created_at`

func scanRedemption(s scanner) (*models.LoyaltyRedemption, error) {
	red := &models.LoyaltyRedemption{}
	var notes, appliedRef sql.NullString
	var usedDate sql.NullTime
	err := s.Scan(
		&red.ID, &red.MemberID, &red.ProfileID, &red.RewardID, &red.RedemptionCode,
		&red.PointsSpent, &red.Status, &notes, &red.RedemptionDate, &red.ExpirationDate,
		&usedDate, &appliedRef, &red.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		red.Notes = &notes.String
	}
	if usedDate.Valid {
		red.UsedDate = &usedDate.Time
	}
	if appliedRef.Valid {
		red.AppliedReferenceID = &appliedRef.String
	}
	return red, nil
}

// CreateRedemption inserts a new redemption. The redemption_code column has a
// unique index; a collision surfaces as ErrDuplicateKey so the service can
// regenerate the code and retry.
func (r *redemptionRepository) CreateRedemption(executor SQLExecutor, redemption *models.LoyaltyRedemption) (int64, error) {
	query := `INSERT INTO loyalty_redemptions
	            (member_id, profile_id, reward_id, redemption_code, points_spent, status, notes,
	             redemption_date, expiration_date, used_date, applied_reference_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	if redemption.CreatedAt.IsZero() {
		redemption.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		redemption.MemberID, redemption.ProfileID, redemption.RewardID, redemption.RedemptionCode,
		redemption.PointsSpent, redemption.Status, redemption.Notes, redemption.RedemptionDate,
		redemption.ExpirationDate, redemption.UsedDate, redemption.AppliedReferenceID,
		redemption.CreatedAt,
	).Scan(&redemption.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating loyalty redemption: %v", ErrDatabaseError, err)
	}
	return redemption.ID, nil
}

// GetRedemptionByID retrieves a redemption by its ID.
func (r *redemptionRepository) GetRedemptionByID(id int64) (*models.LoyaltyRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM loyalty_redemptions WHERE id = $1`
	redemption, err := scanRedemption(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty redemption by ID %d: %v", ErrDatabaseError, id, err)
	}
	return redemption, nil
}

// GetRedemptionByCode retrieves a redemption by its unique code.
func (r *redemptionRepository) GetRedemptionByCode(code string) (*models.LoyaltyRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM loyalty_redemptions WHERE redemption_code = $1`
	redemption, err := scanRedemption(r.db.QueryRow(query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting loyalty redemption by code: %v", ErrDatabaseError, err)
	}
	return redemption, nil
}

// GetRedemptionByCodeForUpdate locks the redemption row so two concurrent
// mark-used calls for the same code serialize.
func (r *redemptionRepository) GetRedemptionByCodeForUpdate(executor SQLExecutor, code string) (*models.LoyaltyRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM loyalty_redemptions WHERE redemption_code = $1 FOR UPDATE`
	redemption, err := scanRedemption(executor.QueryRow(query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking loyalty redemption by code: %v", ErrDatabaseError, err)
	}
	return redemption, nil
}

// UpdateRedemption persists the mutable fields of a redemption.
func (r *redemptionRepository) UpdateRedemption(executor SQLExecutor, redemption *models.LoyaltyRedemption) error {
	query := `UPDATE loyalty_redemptions SET
	            status = $1, used_date = $2, applied_reference_id = $3
	          WHERE id = $4`

	result, err := executor.Exec(query,
		redemption.Status, redemption.UsedDate, redemption.AppliedReferenceID, redemption.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating loyalty redemption ID %d: %v", ErrDatabaseError, redemption.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for loyalty redemption ID %d: %v", ErrDatabaseError, redemption.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRedemptionsByMemberID retrieves a member's redemptions, newest first.
func (r *redemptionRepository) GetRedemptionsByMemberID(memberID int64) ([]models.LoyaltyRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM loyalty_redemptions
	          WHERE member_id = $1
	          ORDER BY redemption_date DESC, id DESC`
	rows, err := r.db.Query(query, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying loyalty redemptions for member %d: %v", ErrDatabaseError, memberID, err)
	}
	defer rows.Close()

	redemptions := []models.LoyaltyRedemption{}
	for rows.Next() {
		redemption, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning loyalty redemption: %v", ErrDatabaseError, err)
		}
		redemptions = append(redemptions, *redemption)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating loyalty redemption rows: %v", ErrDatabaseError, err)
	}
	return redemptions, nil
}

// GetExpirableRedemptions returns ACTIVE redemptions whose validity window
// has passed. The status guard keeps the sweep idempotent.
func (r *redemptionRepository) GetExpirableRedemptions(now time.Time) ([]models.LoyaltyRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM loyalty_redemptions
	          WHERE status = 'ACTIVE' AND expiration_date < $1
	          ORDER BY id ASC`
	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("%w: querying expirable loyalty redemptions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	redemptions := []models.LoyaltyRedemption{}
	for rows.Next() {
		redemption, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning expirable loyalty redemption: %v", ErrDatabaseError, err)
		}
		redemptions = append(redemptions, *redemption)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expirable loyalty redemption rows: %v", ErrDatabaseError, err)
	}
	return redemptions, nil
}
