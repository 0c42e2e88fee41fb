package handlers

import (
	"errors"
	"net/http"

	"gym_club_backend/internal/services"
	"gym_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MembershipHandler holds the membership service.
type MembershipHandler struct {
	membershipService services.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

func respondMembershipError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrMembershipNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership not found.", err.Error()))
	case errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrMembershipTypeNotFound),
		errors.Is(err, services.ErrLocationNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Referenced record not found.", err.Error()))
	case errors.Is(err, services.ErrAlreadyActiveOrSuspended):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Member already holds an active or suspended membership.", err.Error()))
	case errors.Is(err, services.ErrPaymentNotConfirmed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Payment has not been confirmed.", err.Error()))
	case errors.Is(err, services.ErrPaymentVerificationFailed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamFailure, "Payment verification failed.", err.Error()))
	case errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrInvalidSuspensionWindow),
		errors.Is(err, services.ErrMembershipValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.LogError(err, action+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}

// CreateMembership handles the creation of a new membership after payment.
func (h *MembershipHandler) CreateMembership(c *gin.Context) {
	var req services.CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	membership, err := h.membershipService.CreateMembership(req)
	if err != nil {
		respondMembershipError(c, err, "create membership")
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// SuspendMembership handles freezing an active membership.
func (h *MembershipHandler) SuspendMembership(c *gin.Context) {
	membershipID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid membership ID format.", err.Error()))
		return
	}

	var req services.SuspendMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	membership, err := h.membershipService.SuspendMembership(membershipID, req)
	if err != nil {
		respondMembershipError(c, err, "suspend membership")
		return
	}
	c.JSON(http.StatusOK, membership)
}

// ReactivateMembership handles lifting a suspension.
func (h *MembershipHandler) ReactivateMembership(c *gin.Context) {
	membershipID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid membership ID format.", err.Error()))
		return
	}

	membership, err := h.membershipService.ReactivateMembership(membershipID)
	if err != nil {
		respondMembershipError(c, err, "reactivate membership")
		return
	}
	c.JSON(http.StatusOK, membership)
}

// RenewMembership handles extending a membership.
func (h *MembershipHandler) RenewMembership(c *gin.Context) {
	membershipID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid membership ID format.", err.Error()))
		return
	}

	var req services.RenewMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	membership, err := h.membershipService.RenewMembership(membershipID, req)
	if err != nil {
		respondMembershipError(c, err, "renew membership")
		return
	}
	c.JSON(http.StatusOK, membership)
}

// CancelMembership handles the terminal cancellation of a membership.
func (h *MembershipHandler) CancelMembership(c *gin.Context) {
	membershipID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid membership ID format.", err.Error()))
		return
	}

	membership, err := h.membershipService.CancelMembership(membershipID)
	if err != nil {
		respondMembershipError(c, err, "cancel membership")
		return
	}
	c.JSON(http.StatusOK, membership)
}

// GetMembershipByID handles fetching a single membership.
func (h *MembershipHandler) GetMembershipByID(c *gin.Context) {
	membershipID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid membership ID format.", err.Error()))
		return
	}

	membership, err := h.membershipService.GetMembershipByID(membershipID)
	if err != nil {
		respondMembershipError(c, err, "fetch membership")
		return
	}
	c.JSON(http.StatusOK, membership)
}

// GetMemberMemberships handles fetching a member's membership history.
func (h *MembershipHandler) GetMemberMemberships(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("memberId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	memberships, err := h.membershipService.GetMembershipsByMemberID(memberID)
	if err != nil {
		respondMembershipError(c, err, "fetch memberships")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": memberships})
}
