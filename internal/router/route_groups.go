package router

import (
	"gym_club_backend/internal/handlers"
	"gym_club_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the staff authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.RegisterStaff)
		authRoutes.POST("/login", authHandler.Login)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.GetCurrentStaff)
		}
	}
}

// SetupMembershipRoutes sets up the membership lifecycle routes.
func SetupMembershipRoutes(authenticatedGroup *gin.RouterGroup, membershipHandler *handlers.MembershipHandler) {
	membershipRoutes := authenticatedGroup.Group("/memberships")
	membershipRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		membershipRoutes.POST("", membershipHandler.CreateMembership)
		membershipRoutes.GET("/:id", membershipHandler.GetMembershipByID)
		membershipRoutes.POST("/:id/suspend", membershipHandler.SuspendMembership)
		membershipRoutes.POST("/:id/reactivate", membershipHandler.ReactivateMembership)
		membershipRoutes.POST("/:id/renew", membershipHandler.RenewMembership)
		membershipRoutes.POST("/:id/cancel", membershipHandler.CancelMembership)
	}
}

// SetupMemberRoutes sets up the member-scoped read routes.
func SetupMemberRoutes(
	authenticatedGroup *gin.RouterGroup,
	membershipHandler *handlers.MembershipHandler,
	loyaltyHandler *handlers.LoyaltyHandler,
	rewardHandler *handlers.RewardHandler,
	redemptionHandler *handlers.RedemptionHandler,
) {
	memberRoutes := authenticatedGroup.Group("/members/:memberId")
	memberRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		memberRoutes.GET("/memberships", membershipHandler.GetMemberMemberships)
		memberRoutes.GET("/loyalty", loyaltyHandler.GetProfile)
		memberRoutes.GET("/activities", loyaltyHandler.GetMemberActivities)
		memberRoutes.GET("/rewards/affordable", rewardHandler.GetAffordableRewards)
		memberRoutes.GET("/redemptions", redemptionHandler.GetMemberRedemptions)
	}
}

// SetupActivityRoutes sets up the loyalty ledger routes.
func SetupActivityRoutes(authenticatedGroup *gin.RouterGroup, loyaltyHandler *handlers.LoyaltyHandler) {
	activityRoutes := authenticatedGroup.Group("/activities")
	activityRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		activityRoutes.POST("", loyaltyHandler.LogActivity)
		activityRoutes.POST("/:id/cancel", loyaltyHandler.CancelActivity)
	}
}

// SetupRewardRoutes sets up the reward catalog routes. Catalog reads are
// available to all staff; catalog mutations are restricted to admins.
func SetupRewardRoutes(authenticatedGroup *gin.RouterGroup, rewardHandler *handlers.RewardHandler) {
	rewardRoutes := authenticatedGroup.Group("/rewards")
	rewardRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		rewardRoutes.GET("", rewardHandler.GetRewards)
		rewardRoutes.GET("/:id", rewardHandler.GetRewardByID)
	}

	rewardAdminRoutes := authenticatedGroup.Group("/rewards")
	rewardAdminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		rewardAdminRoutes.POST("", rewardHandler.CreateReward)
		rewardAdminRoutes.PUT("/:id", rewardHandler.UpdateReward)
		rewardAdminRoutes.DELETE("/:id", rewardHandler.DeactivateReward)
	}
}

// SetupRedemptionRoutes sets up the redemption routes.
func SetupRedemptionRoutes(authenticatedGroup *gin.RouterGroup, redemptionHandler *handlers.RedemptionHandler) {
	redemptionRoutes := authenticatedGroup.Group("/redemptions")
	redemptionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		redemptionRoutes.POST("", redemptionHandler.RedeemReward)
		redemptionRoutes.GET("/codes/:code", redemptionHandler.ValidateCode)
		redemptionRoutes.POST("/codes/:code/use", redemptionHandler.MarkRedemptionUsed)
	}
}

// SetupAdminRoutes sets up the operational admin routes.
func SetupAdminRoutes(authenticatedGroup *gin.RouterGroup, adminHandler *handlers.AdminHandler) {
	adminRoutes := authenticatedGroup.Group("/admin")
	adminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		adminRoutes.POST("/sweeps/run", adminHandler.RunSweeps)
	}
}
