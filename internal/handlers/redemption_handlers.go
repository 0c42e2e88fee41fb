package handlers

import (
	"errors"
	"net/http"

	"gym_club_backend/internal/services"
	"gym_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RedemptionHandler holds the redemption service.
type RedemptionHandler struct {
	redemptionService services.RedemptionService
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(rs services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: rs}
}

type markUsedPayload struct {
	AppliedReferenceID string `json:"applied_reference_id" binding:"required"`
}

// RedeemReward spends a member's points on a reward and issues a voucher code.
func (h *RedemptionHandler) RedeemReward(c *gin.Context) {
	var req services.RedeemRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	redemption, err := h.redemptionService.RedeemReward(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRewardNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Reward not found.", err.Error()))
		case errors.Is(err, services.ErrRewardInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Reward is no longer active.", err.Error()))
		case errors.Is(err, services.ErrTierNotMet):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Member tier does not meet the reward requirement.", err.Error()))
		case errors.Is(err, services.ErrInsufficientPoints):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Not enough points to redeem this reward.", err.Error()))
		default:
			utils.LogError(err, "RedeemReward: failed to redeem reward")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to redeem reward.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, redemption)
}

// ValidateCode reports whether a voucher code can still be used, without
// consuming it.
func (h *RedemptionHandler) ValidateCode(c *gin.Context) {
	code := c.Param("code")

	validation, err := h.redemptionService.ValidateCode(code)
	if err != nil {
		if errors.Is(err, services.ErrRedemptionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Redemption code not found.", err.Error()))
		} else {
			utils.LogError(err, "ValidateCode: failed to validate code")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to validate code.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, validation)
}

// MarkRedemptionUsed consumes a voucher code at point of service.
func (h *RedemptionHandler) MarkRedemptionUsed(c *gin.Context) {
	code := c.Param("code")

	var payload markUsedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	redemption, err := h.redemptionService.MarkRedemptionUsed(code, payload.AppliedReferenceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRedemptionNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Redemption code not found.", err.Error()))
		case errors.Is(err, services.ErrCodeAlreadyUsed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Redemption code has already been used.", err.Error()))
		case errors.Is(err, services.ErrCodeExpired):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusGone, utils.ErrCodeConflict, "Redemption code has expired.", err.Error()))
		default:
			utils.LogError(err, "MarkRedemptionUsed: failed to mark code used")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark code used.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, redemption)
}

// GetMemberRedemptions lists a member's redemption history.
func (h *RedemptionHandler) GetMemberRedemptions(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("memberId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	redemptions, err := h.redemptionService.GetMemberRedemptions(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberRedemptions: failed to fetch redemptions")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch redemptions.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": redemptions})
}
