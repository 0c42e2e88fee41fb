package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
	"gym_club_backend/pkg/utils"
)

// --- Custom Service Errors for Membership ---
var (
	ErrMembershipNotFound       = errors.New("membership not found")
	ErrMemberNotFound           = errors.New("member not found")
	ErrMembershipTypeNotFound   = errors.New("membership type not found")
	ErrLocationNotFound         = errors.New("location not found")
	ErrAlreadyActiveOrSuspended = errors.New("member already holds an active or suspended membership")
	ErrPaymentNotConfirmed      = errors.New("payment has not been confirmed")
	ErrInvalidStateTransition   = errors.New("invalid membership state transition")
	ErrInvalidSuspensionWindow  = errors.New("invalid suspension window")
	ErrMembershipValidation     = errors.New("membership data validation error")
)

// --- Membership DTOs ---

type CreateMembershipRequest struct {
	MemberID         int64  `json:"member_id" binding:"required"`
	MembershipTypeID int64  `json:"membership_type_id" binding:"required"`
	LocationID       int64  `json:"location_id" binding:"required"`
	PaymentReference string `json:"payment_reference" binding:"required"`
}

type SuspendMembershipRequest struct {
	Reason            string `json:"reason" binding:"required"`
	SuspensionEndDate string `json:"suspension_end_date" binding:"required"` // Format YYYY-MM-DD
}

type RenewMembershipRequest struct {
	DurationMonths int    `json:"duration_months"`
	NewTypeID      *int64 `json:"new_type_id"`
}

// --- MembershipService Interface ---

// MembershipService drives the membership lifecycle state machine:
// ACTIVE <-> SUSPENDED via suspend/reactivate, ACTIVE/SUSPENDED -> CANCELLED
// terminally. Calendar expiry is derived on read, never stored.
type MembershipService interface {
	CreateMembership(req CreateMembershipRequest) (*models.Membership, error)
	SuspendMembership(membershipID int64, req SuspendMembershipRequest) (*models.Membership, error)
	ReactivateMembership(membershipID int64) (*models.Membership, error)
	RenewMembership(membershipID int64, req RenewMembershipRequest) (*models.Membership, error)
	CancelMembership(membershipID int64) (*models.Membership, error)
	GetMembershipByID(membershipID int64) (*models.Membership, error)
	GetMembershipsByMemberID(memberID int64) ([]models.Membership, error)
}

// ActivityLogger is the slice of the loyalty ledger the membership service
// reports purchase/renewal events to.
type ActivityLogger interface {
	LogActivity(req LogActivityRequest) (*models.LoyaltyActivity, error)
}

// --- membershipService Implementation ---

type membershipService struct {
	membershipRepo repositories.MembershipRepository
	directoryRepo  repositories.DirectoryRepository
	txManager      repositories.TxManager
	verifier       PaymentVerifier
	ledger         ActivityLogger // optional; nil disables loyalty crediting
	now            func() time.Time
}

// NewMembershipService creates a new instance of MembershipService.
func NewMembershipService(
	membershipRepo repositories.MembershipRepository,
	directoryRepo repositories.DirectoryRepository,
	txManager repositories.TxManager,
	verifier PaymentVerifier,
	ledger ActivityLogger,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		directoryRepo:  directoryRepo,
		txManager:      txManager,
		verifier:       verifier,
		ledger:         ledger,
		now:            time.Now,
	}
}

// daysBetween counts whole calendar days from one date to another, ignoring
// the time-of-day component.
func daysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

func (s *membershipService) CreateMembership(req CreateMembershipRequest) (*models.Membership, error) {
	if strings.TrimSpace(req.PaymentReference) == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrMembershipValidation)
	}

	if _, err := s.directoryRepo.GetMemberByID(req.MemberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}
	membershipType, err := s.directoryRepo.GetMembershipTypeByID(req.MembershipTypeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipTypeNotFound
		}
		return nil, fmt.Errorf("failed to resolve membership type: %w", err)
	}
	if _, err := s.directoryRepo.GetLocationByID(req.LocationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to resolve location: %w", err)
	}

	existing, err := s.membershipRepo.GetActiveOrSuspendedByMemberID(req.MemberID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check current membership: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyActiveOrSuspended
	}

	payment, err := s.verifier.VerifyPayment(context.Background(), req.PaymentReference)
	if err != nil {
		return nil, err
	}
	if payment.Status != PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment status is %q", ErrPaymentNotConfirmed, payment.Status)
	}

	durationMonths := membershipType.DurationMonths
	if durationMonths <= 0 {
		durationMonths = 1
	}

	startDate := s.now()
	membership := &models.Membership{
		MemberID:         req.MemberID,
		MembershipTypeID: req.MembershipTypeID,
		LocationID:       req.LocationID,
		StartDate:        startDate,
		EndDate:          startDate.AddDate(0, durationMonths, 0),
		Status:           models.MembershipStatusActive,
		Price:            membershipType.MonthlyPrice,
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.membershipRepo.CreateMembership(executor, membership)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.creditLoyaltyEvent(membership.MemberID, models.ActivityMembershipPurchase, req.PaymentReference)
	return membership, nil
}

func (s *membershipService) SuspendMembership(membershipID int64, req SuspendMembershipRequest) (*models.Membership, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: suspension reason is required", ErrMembershipValidation)
	}
	suspensionEnd, err := time.Parse("2006-01-02", req.SuspensionEndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: suspension end date must use YYYY-MM-DD", ErrMembershipValidation)
	}

	var membership *models.Membership
	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		m, err := s.membershipRepo.GetMembershipByIDForUpdate(executor, membershipID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}
		if m.Status != models.MembershipStatusActive {
			return fmt.Errorf("%w: cannot suspend a membership in state %s", ErrInvalidStateTransition, m.Status)
		}

		suspensionStart := s.now()
		if !suspensionEnd.After(suspensionStart) {
			return fmt.Errorf("%w: suspension end date must be in the future", ErrInvalidSuspensionWindow)
		}

		reason := req.Reason
		m.Status = models.MembershipStatusSuspended
		m.SuspensionStart = &suspensionStart
		m.SuspensionEnd = &suspensionEnd
		m.SuspensionReason = &reason
		if err := s.membershipRepo.UpdateMembership(executor, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// ReactivateMembership lifts a suspension and credits the days the member
// lost back onto the end date, so a suspension never shortens paid access.
func (s *membershipService) ReactivateMembership(membershipID int64) (*models.Membership, error) {
	var membership *models.Membership
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		m, err := s.membershipRepo.GetMembershipByIDForUpdate(executor, membershipID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}
		if m.Status != models.MembershipStatusSuspended || m.SuspensionStart == nil {
			return fmt.Errorf("%w: cannot reactivate a membership in state %s", ErrInvalidStateTransition, m.Status)
		}

		suspensionDays := daysBetween(*m.SuspensionStart, s.now())
		if suspensionDays < 0 {
			suspensionDays = 0
		}
		m.EndDate = m.EndDate.AddDate(0, 0, suspensionDays)
		m.Status = models.MembershipStatusActive
		m.SuspensionStart = nil
		m.SuspensionEnd = nil
		m.SuspensionReason = nil
		if err := s.membershipRepo.UpdateMembership(executor, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// RenewMembership extends a membership. A still-running membership chains
// from its current end date (no gap, no overlap); a lapsed one restarts today.
func (s *membershipService) RenewMembership(membershipID int64, req RenewMembershipRequest) (*models.Membership, error) {
	if req.DurationMonths <= 0 {
		return nil, fmt.Errorf("%w: renewal duration must be at least one month", ErrMembershipValidation)
	}

	var newType *models.MembershipType
	if req.NewTypeID != nil {
		mt, err := s.directoryRepo.GetMembershipTypeByID(*req.NewTypeID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrMembershipTypeNotFound
			}
			return nil, fmt.Errorf("failed to resolve membership type: %w", err)
		}
		newType = mt
	}

	var membership *models.Membership
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		m, err := s.membershipRepo.GetMembershipByIDForUpdate(executor, membershipID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}
		if m.Status == models.MembershipStatusCancelled {
			return fmt.Errorf("%w: cannot renew a cancelled membership", ErrInvalidStateTransition)
		}

		today := s.now()
		if m.EndDate.Before(today) {
			m.StartDate = today
		} else {
			m.StartDate = m.EndDate
		}
		m.EndDate = m.StartDate.AddDate(0, req.DurationMonths, 0)
		m.Status = models.MembershipStatusActive
		m.SuspensionStart = nil
		m.SuspensionEnd = nil
		m.SuspensionReason = nil
		if newType != nil {
			m.MembershipTypeID = newType.ID
			m.Price = newType.MonthlyPrice
		}
		if err := s.membershipRepo.UpdateMembership(executor, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.creditLoyaltyEvent(membership.MemberID, models.ActivityMembershipRenewal, "")
	return membership, nil
}

// CancelMembership moves a membership to its terminal state. There is no
// reversal operation; cancelling an already-cancelled membership is a no-op.
func (s *membershipService) CancelMembership(membershipID int64) (*models.Membership, error) {
	var membership *models.Membership
	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		m, err := s.membershipRepo.GetMembershipByIDForUpdate(executor, membershipID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}
		if m.Status == models.MembershipStatusCancelled {
			membership = m
			return nil
		}
		m.Status = models.MembershipStatusCancelled
		m.SuspensionStart = nil
		m.SuspensionEnd = nil
		m.SuspensionReason = nil
		if err := s.membershipRepo.UpdateMembership(executor, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *membershipService) GetMembershipByID(membershipID int64) (*models.Membership, error) {
	membership, err := s.membershipRepo.GetMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership by ID: %w", err)
	}
	return membership, nil
}

func (s *membershipService) GetMembershipsByMemberID(memberID int64) ([]models.Membership, error) {
	memberships, err := s.membershipRepo.GetMembershipsByMemberID(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships for member: %w", err)
	}
	return memberships, nil
}

// creditLoyaltyEvent reports a lifecycle event to the loyalty ledger. Loyalty
// crediting is best-effort: a ledger failure never rolls back the membership
// mutation that triggered it.
func (s *membershipService) creditLoyaltyEvent(memberID int64, activityType models.ActivityType, referenceID string) {
	if s.ledger == nil {
		return
	}
	req := LogActivityRequest{
		MemberID:     memberID,
		ActivityType: activityType,
	}
	if referenceID != "" {
		req.ReferenceID = &referenceID
	}
	if _, err := s.ledger.LogActivity(req); err != nil {
		utils.LogError(err, "Failed to credit loyalty points for membership event")
	}
}
