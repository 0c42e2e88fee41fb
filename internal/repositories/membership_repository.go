package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"
)

// MembershipRepository defines the interface for membership database operations.
type MembershipRepository interface {
	CreateMembership(executor SQLExecutor, membership *models.Membership) (int64, error)
	GetMembershipByID(id int64) (*models.Membership, error)
	GetMembershipByIDForUpdate(executor SQLExecutor, id int64) (*models.Membership, error)
	GetActiveOrSuspendedByMemberID(memberID int64) (*models.Membership, error)
	GetMembershipsByMemberID(memberID int64) ([]models.Membership, error)
	UpdateMembership(executor SQLExecutor, membership *models.Membership) error
}

type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new instance of MembershipRepository.
func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, member_id, membership_type_id, location_id, start_date, end_date,
	status, price, suspension_start, suspension_end, suspension_reason, created_at, updated_at`

func scanMembership(s scanner) (*models.Membership, error) {
	m := &models.Membership{}
	var suspStart, suspEnd sql.NullTime
	var suspReason sql.NullString
	err := s.Scan(
		&m.ID, &m.MemberID, &m.MembershipTypeID, &m.LocationID, &m.StartDate, &m.EndDate,
		&m.Status, &m.Price, &suspStart, &suspEnd, &suspReason, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if suspStart.Valid {
		m.SuspensionStart = &suspStart.Time
	}
	if suspEnd.Valid {
		m.SuspensionEnd = &suspEnd.Time
	}
	if suspReason.Valid {
		m.SuspensionReason = &suspReason.String
	}
	return m, nil
}

// CreateMembership inserts a new membership row.
func (r *membershipRepository) CreateMembership(executor SQLExecutor, membership *models.Membership) (int64, error) {
	query := `INSERT INTO memberships
	            (member_id, membership_type_id, location_id, start_date, end_date, status, price,
	             suspension_start, suspension_end, suspension_reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	currentTime := time.Now()
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = currentTime
	}
	membership.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		membership.MemberID, membership.MembershipTypeID, membership.LocationID,
		membership.StartDate, membership.EndDate, membership.Status, membership.Price,
		membership.SuspensionStart, membership.SuspensionEnd, membership.SuspensionReason,
		membership.CreatedAt, membership.UpdatedAt,
	).Scan(&membership.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating membership: %v", ErrDatabaseError, err)
	}
	return membership.ID, nil
}

// GetMembershipByID retrieves a membership by its ID.
func (r *membershipRepository) GetMembershipByID(id int64) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	membership, err := scanMembership(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting membership by ID %d: %v", ErrDatabaseError, id, err)
	}
	return membership, nil
}

// GetMembershipByIDForUpdate retrieves a membership and locks its row for the
// duration of the surrounding transaction, serializing state transitions.
func (r *membershipRepository) GetMembershipByIDForUpdate(executor SQLExecutor, id int64) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1 FOR UPDATE`
	membership, err := scanMembership(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking membership ID %d: %v", ErrDatabaseError, id, err)
	}
	return membership, nil
}

// GetActiveOrSuspendedByMemberID returns the member's membership currently in
// ACTIVE or SUSPENDED state, or ErrNotFound when the member holds none.
func (r *membershipRepository) GetActiveOrSuspendedByMemberID(memberID int64) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
	          WHERE member_id = $1 AND status IN ('ACTIVE', 'SUSPENDED')
	          ORDER BY end_date DESC
	          LIMIT 1`
	membership, err := scanMembership(r.db.QueryRow(query, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting current membership for member %d: %v", ErrDatabaseError, memberID, err)
	}
	return membership, nil
}

// GetMembershipsByMemberID retrieves all memberships a member has ever held,
// newest first.
func (r *membershipRepository) GetMembershipsByMemberID(memberID int64) ([]models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
	          WHERE member_id = $1
	          ORDER BY start_date DESC`
	rows, err := r.db.Query(query, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying memberships for member %d: %v", ErrDatabaseError, memberID, err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning membership: %v", ErrDatabaseError, err)
		}
		memberships = append(memberships, *membership)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating membership rows: %v", ErrDatabaseError, err)
	}
	return memberships, nil
}

// UpdateMembership persists the mutable fields of a membership.
func (r *membershipRepository) UpdateMembership(executor SQLExecutor, membership *models.Membership) error {
	query := `UPDATE memberships SET
	            start_date = $1, end_date = $2, status = $3, price = $4,
	            suspension_start = $5, suspension_end = $6, suspension_reason = $7, updated_at = $8
	          WHERE id = $9`

	membership.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		membership.StartDate, membership.EndDate, membership.Status, membership.Price,
		membership.SuspensionStart, membership.SuspensionEnd, membership.SuspensionReason,
		membership.UpdatedAt, membership.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating membership ID %d: %v", ErrDatabaseError, membership.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for membership ID %d: %v", ErrDatabaseError, membership.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
