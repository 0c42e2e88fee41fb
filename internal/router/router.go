package router

import (
	"database/sql"
	"time"

	"gym_club_backend/internal/handlers"
	"gym_club_backend/internal/middleware"
	"gym_club_backend/internal/repositories"
	"gym_club_backend/internal/services"
	"gym_club_backend/internal/sweeper"

	"github.com/gin-gonic/gin"
)

// Config carries the runtime settings the wiring needs beyond the database
// handle.
type Config struct {
	PaymentGatewayURL string
	PaymentTimeout    time.Duration
	SweepInterval     time.Duration
}

// Setup initializes repositories, services and handlers, and registers all
// routes on the engine. It returns the background sweeper so the caller can
// start its loop.
func Setup(engine *gin.Engine, db *sql.DB, cfg Config) *sweeper.Sweeper {
	// Repositories
	txManager := repositories.NewTxManager(db)
	authRepo := repositories.NewAuthRepository(db)
	directoryRepo := repositories.NewDirectoryRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	profileRepo := repositories.NewLoyaltyProfileRepository(db)
	activityRepo := repositories.NewLoyaltyActivityRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)
	redemptionRepo := repositories.NewRedemptionRepository(db)

	// Collaborators
	verifier := services.NewHTTPPaymentVerifier(cfg.PaymentGatewayURL, cfg.PaymentTimeout)
	notifier := services.NewLogNotifier()

	// Services
	authService := services.NewAuthService(authRepo, txManager)
	activityService := services.NewLoyaltyActivityService(activityRepo, profileRepo, membershipRepo, txManager)
	membershipService := services.NewMembershipService(membershipRepo, directoryRepo, txManager, verifier, activityService)
	profileService := services.NewLoyaltyProfileService(profileRepo, txManager, notifier)
	catalogService := services.NewRewardCatalogService(rewardRepo, profileRepo, txManager)
	redemptionService := services.NewRedemptionService(redemptionRepo, rewardRepo, profileRepo, txManager, notifier)

	sw := sweeper.New(activityService, redemptionService, profileService, cfg.SweepInterval)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	loyaltyHandler := handlers.NewLoyaltyHandler(profileService, activityService)
	rewardHandler := handlers.NewRewardHandler(catalogService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	adminHandler := handlers.NewAdminHandler(sw)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupMembershipRoutes(authenticated, membershipHandler)
		SetupMemberRoutes(authenticated, membershipHandler, loyaltyHandler, rewardHandler, redemptionHandler)
		SetupActivityRoutes(authenticated, loyaltyHandler)
		SetupRewardRoutes(authenticated, rewardHandler)
		SetupRedemptionRoutes(authenticated, redemptionHandler)
		SetupAdminRoutes(authenticated, adminHandler)
	}

	return sw
}
