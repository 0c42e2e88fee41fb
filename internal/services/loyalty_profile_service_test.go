package services

import (
	"testing"
	"time"

	"gym_club_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileServiceForTest(t *testing.T) (*loyaltyProfileService, *fakeProfileRepo, *fakeNotifier) {
	t.Helper()
	profileRepo := newFakeProfileRepo()
	notifier := &fakeNotifier{}
	svc := NewLoyaltyProfileService(profileRepo, fakeTxManager{}, notifier).(*loyaltyProfileService)
	svc.now = func() time.Time { return testNow }
	return svc, profileRepo, notifier
}

func TestTierForTenure(t *testing.T) {
	cases := []struct {
		months int
		want   models.LoyaltyTier
	}{
		{0, models.TierBronze},
		{5, models.TierBronze},
		{6, models.TierSilver},
		{11, models.TierSilver},
		{12, models.TierGold},
		{23, models.TierGold},
		{24, models.TierPlatinum},
		{60, models.TierPlatinum},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierForTenure(tc.months), "tenure %d months", tc.months)
	}
}

func TestMonthsBetween(t *testing.T) {
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, MonthsBetween(from, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, MonthsBetween(from, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12, MonthsBetween(from, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, MonthsBetween(from, from.AddDate(0, 0, -1)), "reversed dates clamp to zero")
}

func TestTierOrdering(t *testing.T) {
	tiers := models.AllTiers()
	for i := 1; i < len(tiers); i++ {
		assert.True(t, tiers[i].AtLeast(tiers[i-1]))
		assert.False(t, tiers[i-1].AtLeast(tiers[i]))
	}
	assert.Equal(t, -1, models.LoyaltyTier("DIAMOND").Ordinal())
}

func TestGetOrCreateProfile(t *testing.T) {
	svc, _, _ := newProfileServiceForTest(t)

	profile, err := svc.GetOrCreateProfile(7)
	require.NoError(t, err)
	assert.Equal(t, models.TierBronze, profile.CurrentTier)
	assert.Equal(t, 0, profile.AvailablePoints)
	assert.Equal(t, testNow, profile.MemberSince)

	again, err := svc.GetOrCreateProfile(7)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestGetProfileByMemberIDNotFound(t *testing.T) {
	svc, _, _ := newProfileServiceForTest(t)

	_, err := svc.GetProfileByMemberID(7)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAddPoints(t *testing.T) {
	svc, _, _ := newProfileServiceForTest(t)

	profile, err := svc.AddPoints(7, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, profile.AvailablePoints)
	assert.Equal(t, 120, profile.LifetimePoints)

	_, err = svc.AddPoints(7, 0)
	assert.ErrorIs(t, err, ErrInvalidPointsAmount)
	_, err = svc.AddPoints(7, -5)
	assert.ErrorIs(t, err, ErrInvalidPointsAmount)
}

func TestDeductPoints(t *testing.T) {
	svc, _, _ := newProfileServiceForTest(t)

	_, err := svc.AddPoints(7, 100)
	require.NoError(t, err)

	profile, err := svc.DeductPoints(7, 60)
	require.NoError(t, err)
	assert.Equal(t, 40, profile.AvailablePoints)
	assert.Equal(t, 100, profile.LifetimePoints, "spending never reduces the lifetime total")

	_, err = svc.DeductPoints(7, 41)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = svc.DeductPoints(404, 10)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRecomputeAllTiersPromotes(t *testing.T) {
	svc, profileRepo, notifier := newProfileServiceForTest(t)

	// Tenure: 7 months -> SILVER, 25 months -> PLATINUM, 1 month -> stays BRONZE.
	seedProfile(t, profileRepo, 1, testNow.AddDate(0, -7, 0), models.TierBronze)
	seedProfile(t, profileRepo, 2, testNow.AddDate(0, -25, 0), models.TierBronze)
	seedProfile(t, profileRepo, 3, testNow.AddDate(0, -1, 0), models.TierBronze)

	promoted, err := svc.RecomputeAllTiers(testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)

	p1, _ := profileRepo.GetProfileByMemberID(1)
	p2, _ := profileRepo.GetProfileByMemberID(2)
	p3, _ := profileRepo.GetProfileByMemberID(3)
	assert.Equal(t, models.TierSilver, p1.CurrentTier)
	assert.Equal(t, models.TierPlatinum, p2.CurrentTier)
	assert.Equal(t, models.TierBronze, p3.CurrentTier)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, NotificationTierUpgrade, notifier.sent[0].kind)

	// A second sweep at the same instant promotes nobody.
	promoted, err = svc.RecomputeAllTiers(testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, promoted)
}

func TestRecomputeAllTiersNeverDowngrades(t *testing.T) {
	svc, profileRepo, _ := newProfileServiceForTest(t)

	// Hand-granted GOLD with only 2 months of tenure stays GOLD.
	seedProfile(t, profileRepo, 1, testNow.AddDate(0, -2, 0), models.TierGold)

	promoted, err := svc.RecomputeAllTiers(testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, promoted)

	p, _ := profileRepo.GetProfileByMemberID(1)
	assert.Equal(t, models.TierGold, p.CurrentTier)
}

func TestRecomputeAllTiersSurvivesNotifierFailure(t *testing.T) {
	svc, profileRepo, notifier := newProfileServiceForTest(t)
	notifier.err = assert.AnError

	seedProfile(t, profileRepo, 1, testNow.AddDate(0, -7, 0), models.TierBronze)

	promoted, err := svc.RecomputeAllTiers(testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	p, _ := profileRepo.GetProfileByMemberID(1)
	assert.Equal(t, models.TierSilver, p.CurrentTier, "promotion commits despite notification failure")
}

func seedProfile(t *testing.T, repo *fakeProfileRepo, memberID int64, memberSince time.Time, tier models.LoyaltyTier) {
	t.Helper()
	_, err := repo.CreateProfile(nil, &models.LoyaltyProfile{
		MemberID:    memberID,
		CurrentTier: tier,
		MemberSince: memberSince,
	})
	require.NoError(t, err)
}
