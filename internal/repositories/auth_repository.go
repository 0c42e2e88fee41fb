package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_club_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AuthRepository defines the interface for staff account database operations.
type AuthRepository interface {
	CreateStaffUser(executor SQLExecutor, user *models.StaffUser, hashedPassword string) (int64, error)
	FindStaffByUsername(username string) (*models.StaffUser, error)
	FindStaffByID(id int64) (*models.StaffUser, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateStaffUser inserts a new staff account.
func (r *authRepository) CreateStaffUser(executor SQLExecutor, user *models.StaffUser, hashedPassword string) (int64, error) {
	query := `INSERT INTO staff_users (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	var userID int64
	err := executor.QueryRow(query,
		user.Username, hashedPassword, user.Email, user.FullName, user.Role, true,
		currentTime, currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating staff user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

const staffColumns = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func scanStaffUser(s scanner) (*models.StaffUser, error) {
	user := &models.StaffUser{}
	var email, fullName sql.NullString
	err := s.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &email, &fullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		user.Email = &email.String
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	return user, nil
}

// FindStaffByUsername retrieves a staff account by username, including the
// password hash for credential verification.
func (r *authRepository) FindStaffByUsername(username string) (*models.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE username = $1`
	user, err := scanStaffUser(r.db.QueryRow(query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding staff user by username: %v", ErrDatabaseError, err)
	}
	return user, nil
}

// FindStaffByID retrieves a staff account by its ID.
func (r *authRepository) FindStaffByID(id int64) (*models.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE id = $1`
	user, err := scanStaffUser(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding staff user by ID %d: %v", ErrDatabaseError, id, err)
	}
	return user, nil
}
