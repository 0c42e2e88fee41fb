package services

import (
	"errors"
	"testing"
	"time"

	"gym_club_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type membershipFixture struct {
	service  *membershipService
	repo     *fakeMembershipRepo
	verifier *fakePaymentVerifier
	ledger   *fakeActivityLogger
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()

	directory := newFakeDirectoryRepo()
	directory.members[1] = models.Member{ID: 1, FullName: "Aruzhan Seitkali"}
	directory.types[1] = models.MembershipType{ID: 1, Name: "Standard", MonthlyPrice: 49.90, DurationMonths: 1, IsActive: true}
	directory.types[2] = models.MembershipType{ID: 2, Name: "Premium", MonthlyPrice: 89.90, DurationMonths: 1, IsActive: true}
	directory.locations[1] = models.Location{ID: 1, Name: "Downtown", IsActive: true}

	repo := newFakeMembershipRepo()
	verifier := &fakePaymentVerifier{result: &PaymentResult{Status: PaymentStatusSucceeded, Amount: 49.90, Currency: "USD"}}
	ledger := &fakeActivityLogger{}

	svc := NewMembershipService(repo, directory, fakeTxManager{}, verifier, ledger).(*membershipService)
	svc.now = func() time.Time { return testNow }

	return &membershipFixture{service: svc, repo: repo, verifier: verifier, ledger: ledger}
}

func validCreateRequest() CreateMembershipRequest {
	return CreateMembershipRequest{
		MemberID:         1,
		MembershipTypeID: 1,
		LocationID:       1,
		PaymentReference: "pay_123",
	}
}

func TestCreateMembership(t *testing.T) {
	f := newMembershipFixture(t)

	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.MembershipStatusActive, m.Status)
	assert.Equal(t, testNow, m.StartDate)
	assert.Equal(t, testNow.AddDate(0, 1, 0), m.EndDate)
	assert.Equal(t, 49.90, m.Price)
	assert.NotZero(t, m.ID)

	require.Len(t, f.ledger.logged, 1)
	assert.Equal(t, models.ActivityMembershipPurchase, f.ledger.logged[0].ActivityType)
	require.NotNil(t, f.ledger.logged[0].ReferenceID)
	assert.Equal(t, "pay_123", *f.ledger.logged[0].ReferenceID)
}

func TestCreateMembershipRejectsSecondConcurrentMembership(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.CreateMembership(validCreateRequest())
	assert.ErrorIs(t, err, ErrAlreadyActiveOrSuspended)
}

func TestCreateMembershipAllowedAfterCancellation(t *testing.T) {
	f := newMembershipFixture(t)

	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	_, err = f.service.CancelMembership(m.ID)
	require.NoError(t, err)

	_, err = f.service.CreateMembership(validCreateRequest())
	assert.NoError(t, err)
}

func TestCreateMembershipPaymentNotConfirmed(t *testing.T) {
	f := newMembershipFixture(t)
	f.verifier.result = &PaymentResult{Status: "pending"}

	_, err := f.service.CreateMembership(validCreateRequest())
	assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.Empty(t, f.repo.memberships)
}

func TestCreateMembershipVerifierFailure(t *testing.T) {
	f := newMembershipFixture(t)
	f.verifier.err = errors.New("gateway timeout")
	f.verifier.result = nil

	_, err := f.service.CreateMembership(validCreateRequest())
	assert.Error(t, err)
	assert.Empty(t, f.repo.memberships)
}

func TestCreateMembershipUnknownReferences(t *testing.T) {
	f := newMembershipFixture(t)

	req := validCreateRequest()
	req.MemberID = 99
	_, err := f.service.CreateMembership(req)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	req = validCreateRequest()
	req.MembershipTypeID = 99
	_, err = f.service.CreateMembership(req)
	assert.ErrorIs(t, err, ErrMembershipTypeNotFound)

	req = validCreateRequest()
	req.LocationID = 99
	_, err = f.service.CreateMembership(req)
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestCreateMembershipSurvivesLedgerFailure(t *testing.T) {
	f := newMembershipFixture(t)
	f.ledger.err = errors.New("ledger down")

	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, m.Status)
}

func TestSuspendMembership(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	suspended, err := f.service.SuspendMembership(m.ID, SuspendMembershipRequest{
		Reason:            "travel",
		SuspensionEndDate: "2025-04-01",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MembershipStatusSuspended, suspended.Status)
	require.NotNil(t, suspended.SuspensionStart)
	assert.Equal(t, testNow, *suspended.SuspensionStart)
	require.NotNil(t, suspended.SuspensionReason)
	assert.Equal(t, "travel", *suspended.SuspensionReason)
}

func TestSuspendMembershipInvalidStates(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	req := SuspendMembershipRequest{Reason: "travel", SuspensionEndDate: "2025-04-01"}

	_, err = f.service.SuspendMembership(m.ID, req)
	require.NoError(t, err)
	_, err = f.service.SuspendMembership(m.ID, req)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = f.service.SuspendMembership(999, req)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestSuspendMembershipRejectsPastEndDate(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.SuspendMembership(m.ID, SuspendMembershipRequest{
		Reason:            "travel",
		SuspensionEndDate: "2025-03-01",
	})
	assert.ErrorIs(t, err, ErrInvalidSuspensionWindow)
}

func TestReactivateMembershipCreditsSuspendedDays(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	originalEnd := m.EndDate

	_, err = f.service.SuspendMembership(m.ID, SuspendMembershipRequest{
		Reason:            "injury",
		SuspensionEndDate: "2025-05-01",
	})
	require.NoError(t, err)

	// Reactivate ten days into the suspension.
	f.service.now = func() time.Time { return testNow.AddDate(0, 0, 10) }
	reactivated, err := f.service.ReactivateMembership(m.ID)
	require.NoError(t, err)

	assert.Equal(t, models.MembershipStatusActive, reactivated.Status)
	assert.Equal(t, originalEnd.AddDate(0, 0, 10), reactivated.EndDate)
	assert.Nil(t, reactivated.SuspensionStart)
	assert.Nil(t, reactivated.SuspensionEnd)
	assert.Nil(t, reactivated.SuspensionReason)
}

func TestReactivateMembershipRequiresSuspension(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.ReactivateMembership(m.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestRenewMembershipChainsFromEndDate(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	originalEnd := m.EndDate

	renewed, err := f.service.RenewMembership(m.ID, RenewMembershipRequest{DurationMonths: 3})
	require.NoError(t, err)

	assert.Equal(t, originalEnd, renewed.StartDate)
	assert.Equal(t, originalEnd.AddDate(0, 3, 0), renewed.EndDate)

	require.Len(t, f.ledger.logged, 2)
	assert.Equal(t, models.ActivityMembershipRenewal, f.ledger.logged[1].ActivityType)
}

func TestRenewMembershipRestartsAfterLapse(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	// Renew well after the membership lapsed.
	lateNow := testNow.AddDate(0, 6, 0)
	f.service.now = func() time.Time { return lateNow }

	renewed, err := f.service.RenewMembership(m.ID, RenewMembershipRequest{DurationMonths: 1})
	require.NoError(t, err)

	assert.Equal(t, lateNow, renewed.StartDate)
	assert.Equal(t, lateNow.AddDate(0, 1, 0), renewed.EndDate)
	assert.Equal(t, models.MembershipStatusActive, renewed.Status)
}

func TestRenewMembershipClearsSuspensionAndSwitchesType(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	_, err = f.service.SuspendMembership(m.ID, SuspendMembershipRequest{
		Reason:            "travel",
		SuspensionEndDate: "2025-04-01",
	})
	require.NoError(t, err)

	newTypeID := int64(2)
	renewed, err := f.service.RenewMembership(m.ID, RenewMembershipRequest{DurationMonths: 1, NewTypeID: &newTypeID})
	require.NoError(t, err)

	assert.Equal(t, models.MembershipStatusActive, renewed.Status)
	assert.Nil(t, renewed.SuspensionStart)
	assert.Equal(t, int64(2), renewed.MembershipTypeID)
	assert.Equal(t, 89.90, renewed.Price)
}

func TestRenewMembershipRejectsCancelled(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	_, err = f.service.CancelMembership(m.ID)
	require.NoError(t, err)

	_, err = f.service.RenewMembership(m.ID, RenewMembershipRequest{DurationMonths: 1})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestRenewMembershipValidatesDuration(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.service.RenewMembership(1, RenewMembershipRequest{DurationMonths: 0})
	assert.ErrorIs(t, err, ErrMembershipValidation)
}

func TestCancelMembershipIsIdempotent(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)

	first, err := f.service.CancelMembership(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusCancelled, first.Status)

	second, err := f.service.CancelMembership(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusCancelled, second.Status)
}

func TestCancelMembershipFromSuspendedClearsSuspension(t *testing.T) {
	f := newMembershipFixture(t)
	m, err := f.service.CreateMembership(validCreateRequest())
	require.NoError(t, err)
	_, err = f.service.SuspendMembership(m.ID, SuspendMembershipRequest{
		Reason:            "relocation",
		SuspensionEndDate: "2025-04-01",
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelMembership(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.SuspensionStart)
	assert.Nil(t, cancelled.SuspensionReason)
}

func TestGetMembershipByIDNotFound(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.service.GetMembershipByID(42)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestMembershipIsCurrentlyActive(t *testing.T) {
	m := &models.Membership{Status: models.MembershipStatusActive, EndDate: testNow}

	assert.True(t, m.IsCurrentlyActive(testNow))
	assert.False(t, m.IsCurrentlyActive(testNow.Add(time.Second)))

	m.Status = models.MembershipStatusSuspended
	assert.False(t, m.IsCurrentlyActive(testNow))
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 0, 15, 0, 0, time.UTC)

	assert.Equal(t, 10, daysBetween(from, to))
	assert.Equal(t, 0, daysBetween(from, from))
}
