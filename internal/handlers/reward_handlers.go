package handlers

import (
	"errors"
	"net/http"

	"gym_club_backend/internal/services"
	"gym_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RewardHandler holds the reward catalog service.
type RewardHandler struct {
	catalogService services.RewardCatalogService
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(cs services.RewardCatalogService) *RewardHandler {
	return &RewardHandler{catalogService: cs}
}

// GetRewards lists catalog entries. ?active=true filters to active rewards.
func (h *RewardHandler) GetRewards(c *gin.Context) {
	onlyActive := c.DefaultQuery("active", "true") == "true"

	rewards, err := h.catalogService.GetRewards(onlyActive)
	if err != nil {
		utils.LogError(err, "GetRewards: failed to fetch rewards")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch rewards.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rewards})
}

// GetRewardByID fetches a single catalog entry.
func (h *RewardHandler) GetRewardByID(c *gin.Context) {
	rewardID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reward ID format.", err.Error()))
		return
	}

	reward, err := h.catalogService.GetRewardByID(rewardID)
	if err != nil {
		if errors.Is(err, services.ErrRewardNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Reward not found.", err.Error()))
		} else {
			utils.LogError(err, "GetRewardByID: failed to fetch reward")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch reward.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, reward)
}

// GetAffordableRewards lists active rewards the member's balance covers.
func (h *RewardHandler) GetAffordableRewards(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("memberId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	rewards, err := h.catalogService.ListAffordableRewards(memberID)
	if err != nil {
		utils.LogError(err, "GetAffordableRewards: failed to fetch affordable rewards")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch affordable rewards.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rewards})
}

// CreateReward adds a new catalog entry.
func (h *RewardHandler) CreateReward(c *gin.Context) {
	var req services.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	reward, err := h.catalogService.CreateReward(req)
	if err != nil {
		if errors.Is(err, services.ErrRewardValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.LogError(err, "CreateReward: failed to create reward")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create reward.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, reward)
}

// UpdateReward mutates an existing catalog entry.
func (h *RewardHandler) UpdateReward(c *gin.Context) {
	rewardID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reward ID format.", err.Error()))
		return
	}

	var req services.UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	reward, err := h.catalogService.UpdateReward(rewardID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRewardNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Reward not found.", err.Error()))
		case errors.Is(err, services.ErrRewardValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		default:
			utils.LogError(err, "UpdateReward: failed to update reward")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update reward.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, reward)
}

// DeactivateReward retires a catalog entry from redemption.
func (h *RewardHandler) DeactivateReward(c *gin.Context) {
	rewardID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reward ID format.", err.Error()))
		return
	}

	reward, err := h.catalogService.DeactivateReward(rewardID)
	if err != nil {
		if errors.Is(err, services.ErrRewardNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Reward not found.", err.Error()))
		} else {
			utils.LogError(err, "DeactivateReward: failed to deactivate reward")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to deactivate reward.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, reward)
}
