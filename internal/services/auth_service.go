package services

import (
	"errors"
	"fmt"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
	"gym_club_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors for Staff Auth ---
var (
	ErrStaffNotFound      = errors.New("staff user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrStaffInactive      = errors.New("staff account is deactivated")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrStaffValidation    = errors.New("staff data validation error")
)

// --- Staff Auth DTOs ---

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterStaffRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"` // "Admin" or "Staff"; defaults to "Staff"
}

type AuthResponse struct {
	User        *models.StaffUser `json:"user"`
	AccessToken string            `json:"access_token"`
}

// --- AuthService Interface ---

// AuthService manages staff accounts for the protected API surface. Gym
// members never authenticate here; their identity is resolved upstream.
type AuthService interface {
	RegisterStaff(req RegisterStaffRequest) (*models.StaffUser, error)
	Login(req LoginRequest) (*AuthResponse, error)
	GetStaffProfile(staffID int64) (*models.StaffUser, error)
}

// --- authService Implementation ---

type authService struct {
	authRepo  repositories.AuthRepository
	txManager repositories.TxManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, txManager repositories.TxManager) AuthService {
	return &authService{
		authRepo:  authRepo,
		txManager: txManager,
	}
}

func (s *authService) RegisterStaff(req RegisterStaffRequest) (*models.StaffUser, error) {
	role := req.Role
	if role == "" {
		role = "Staff"
	}
	if role != "Admin" && role != "Staff" {
		return nil, fmt.Errorf("%w: unknown role %q", ErrStaffValidation, role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.StaffUser{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     role,
		IsActive: true,
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		id, err := s.authRepo.CreateStaffUser(executor, user, string(hashedPassword))
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register staff user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(req LoginRequest) (*AuthResponse, error) {
	user, err := s.authRepo.FindStaffByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up staff user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrStaffInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *authService) GetStaffProfile(staffID int64) (*models.StaffUser, error) {
	user, err := s.authRepo.FindStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
