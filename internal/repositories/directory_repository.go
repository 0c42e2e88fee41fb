package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"gym_club_backend/internal/models"
)

// DirectoryRepository resolves the read-only reference data the core
// services validate against: members, membership types and locations.
// Identity management happens upstream; these are lookups only.
type DirectoryRepository interface {
	GetMemberByID(id int64) (*models.Member, error)
	GetMembershipTypeByID(id int64) (*models.MembershipType, error)
	GetLocationByID(id int64) (*models.Location, error)
}

type directoryRepository struct {
	db *sql.DB
}

// NewDirectoryRepository creates a new instance of DirectoryRepository.
func NewDirectoryRepository(db *sql.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

// GetMemberByID retrieves a member record by its ID.
func (r *directoryRepository) GetMemberByID(id int64) (*models.Member, error) {
	query := `SELECT id, full_name, phone_number, email, created_at, updated_at
	          FROM members WHERE id = $1`
	member := &models.Member{}
	var phone, email sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&member.ID, &member.FullName, &phone, &email, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting member by ID %d: %v", ErrDatabaseError, id, err)
	}
	if phone.Valid {
		member.PhoneNumber = &phone.String
	}
	if email.Valid {
		member.Email = &email.String
	}
	return member, nil
}

// GetMembershipTypeByID retrieves a membership plan by its ID.
func (r *directoryRepository) GetMembershipTypeByID(id int64) (*models.MembershipType, error) {
	query := `SELECT id, name, description, monthly_price, duration_months, is_active, created_at, updated_at
	          FROM membership_types WHERE id = $1`
	mt := &models.MembershipType{}
	var description sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&mt.ID, &mt.Name, &description, &mt.MonthlyPrice, &mt.DurationMonths, &mt.IsActive,
		&mt.CreatedAt, &mt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting membership type by ID %d: %v", ErrDatabaseError, id, err)
	}
	if description.Valid {
		mt.Description = &description.String
	}
	return mt, nil
}

// GetLocationByID retrieves a franchise location by its ID.
func (r *directoryRepository) GetLocationByID(id int64) (*models.Location, error) {
	query := `SELECT id, name, address, is_active, created_at, updated_at
	          FROM locations WHERE id = $1`
	location := &models.Location{}
	var address sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&location.ID, &location.Name, &address, &location.IsActive,
		&location.CreatedAt, &location.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting location by ID %d: %v", ErrDatabaseError, id, err)
	}
	if address.Valid {
		location.Address = &address.String
	}
	return location, nil
}
