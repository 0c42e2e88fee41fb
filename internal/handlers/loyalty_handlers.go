package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/services"
	"gym_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// LoyaltyHandler holds the loyalty profile and activity ledger services.
type LoyaltyHandler struct {
	profileService  services.LoyaltyProfileService
	activityService services.LoyaltyActivityService
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(ps services.LoyaltyProfileService, as services.LoyaltyActivityService) *LoyaltyHandler {
	return &LoyaltyHandler{profileService: ps, activityService: as}
}

// logActivityPayload extends the service request with an optional expiry for
// promotional credits.
type logActivityPayload struct {
	services.LogActivityRequest
	ExpiresAt *time.Time `json:"expires_at"`
}

// GetProfile returns the member's loyalty profile, creating it on first
// contact with the loyalty program.
func (h *LoyaltyHandler) GetProfile(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("memberId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	profile, err := h.profileService.GetOrCreateProfile(memberID)
	if err != nil {
		utils.LogError(err, "GetProfile: failed to get or create loyalty profile")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch loyalty profile.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetMemberActivities returns a page of the member's activity ledger.
func (h *LoyaltyHandler) GetMemberActivities(c *gin.Context) {
	memberID, err := utils.StrToInt64(c.Param("memberId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	activities, totalCount, err := h.activityService.GetMemberActivities(memberID, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMemberActivities: failed to fetch activities")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch loyalty activities.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      activities,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// LogActivity appends a point-earning event to the ledger.
func (h *LoyaltyHandler) LogActivity(c *gin.Context) {
	var payload logActivityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	var activity *models.LoyaltyActivity
	var err error
	if payload.ExpiresAt != nil {
		activity, err = h.activityService.LogActivityWithExpiry(payload.LogActivityRequest, *payload.ExpiresAt)
	} else {
		activity, err = h.activityService.LogActivity(payload.LogActivityRequest)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMembershipNotActive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Member does not hold an active membership.", err.Error()))
		case errors.Is(err, services.ErrUnknownActivityType):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Unknown activity type.", err.Error()))
		default:
			utils.LogError(err, "LogActivity: failed to log activity")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to log loyalty activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// CancelActivity flags a ledger entry as cancelled and claws back its points.
func (h *LoyaltyHandler) CancelActivity(c *gin.Context) {
	activityID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid activity ID format.", err.Error()))
		return
	}

	activity, err := h.activityService.CancelActivity(activityID)
	if err != nil {
		if errors.Is(err, services.ErrActivityNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Loyalty activity not found.", err.Error()))
		} else {
			utils.LogError(err, "CancelActivity: failed to cancel activity")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel loyalty activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, activity)
}
