// Package sweeper runs the periodic background maintenance passes: expiring
// promotional points, expiring unused redemption codes and promoting loyalty
// tiers as tenure accrues. Every pass is idempotent, so overlapping runs or a
// manual trigger racing the ticker only waste work.
package sweeper

import (
	"context"
	"time"

	"gym_club_backend/internal/services"
	"gym_club_backend/pkg/utils"
)

// Result summarizes a single maintenance pass.
type Result struct {
	RanAt              time.Time `json:"ran_at"`
	ExpiredPoints      int       `json:"expired_points"`
	ExpiredRedemptions int       `json:"expired_redemptions"`
	TierPromotions     int       `json:"tier_promotions"`
}

// Sweeper drives the three maintenance passes on a fixed interval.
type Sweeper struct {
	activityService   services.LoyaltyActivityService
	redemptionService services.RedemptionService
	profileService    services.LoyaltyProfileService
	interval          time.Duration

	now func() time.Time
}

// New creates a Sweeper. A non-positive interval falls back to hourly runs.
func New(
	activityService services.LoyaltyActivityService,
	redemptionService services.RedemptionService,
	profileService services.LoyaltyProfileService,
	interval time.Duration,
) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		activityService:   activityService,
		redemptionService: redemptionService,
		profileService:    profileService,
		interval:          interval,
		now:               time.Now,
	}
}

// RunOnce executes a single maintenance pass. Each sub-sweep runs to
// completion independently; a failure in one is logged and does not block
// the others.
func (s *Sweeper) RunOnce() Result {
	now := s.now()
	result := Result{RanAt: now}

	expired, err := s.activityService.ProcessExpiredPoints(now)
	if err != nil {
		utils.LogError(err, "sweeper: expired points pass failed")
	}
	result.ExpiredPoints = expired

	expiredCodes, err := s.redemptionService.ProcessExpiredRedemptions(now)
	if err != nil {
		utils.LogError(err, "sweeper: expired redemptions pass failed")
	}
	result.ExpiredRedemptions = expiredCodes

	promoted, err := s.profileService.RecomputeAllTiers(now)
	if err != nil {
		utils.LogError(err, "sweeper: tier recompute pass failed")
	}
	result.TierPromotions = promoted

	utils.LogInfo("sweeper: pass complete", map[string]interface{}{
		"expired_points":      result.ExpiredPoints,
		"expired_redemptions": result.ExpiredRedemptions,
		"tier_promotions":     result.TierPromotions,
	})
	return result
}

// Start blocks, running a pass every interval until ctx is cancelled. It is
// intended to run in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.LogInfo("sweeper: started", map[string]interface{}{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("sweeper: stopped")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}
