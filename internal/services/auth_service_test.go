package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServiceForTest(t *testing.T) (AuthService, *fakeAuthRepo) {
	t.Helper()
	authRepo := newFakeAuthRepo()
	return NewAuthService(authRepo, fakeTxManager{}), authRepo
}

func TestRegisterStaff(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	user, err := svc.RegisterStaff(RegisterStaffRequest{Username: "frontdesk", Password: "s3cret-password"})
	require.NoError(t, err)
	assert.Equal(t, "Staff", user.Role, "role defaults to Staff")
	assert.True(t, user.IsActive)
	assert.NotZero(t, user.ID)

	admin, err := svc.RegisterStaff(RegisterStaffRequest{Username: "boss", Password: "s3cret-password", Role: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Role)

	_, err = svc.RegisterStaff(RegisterStaffRequest{Username: "x", Password: "s3cret-password", Role: "Janitor"})
	assert.ErrorIs(t, err, ErrStaffValidation)

	_, err = svc.RegisterStaff(RegisterStaffRequest{Username: "frontdesk", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	_, err := svc.RegisterStaff(RegisterStaffRequest{Username: "frontdesk", Password: "s3cret-password"})
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{Username: "frontdesk", Password: "s3cret-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.User.PasswordHash)

	_, err = svc.Login(LoginRequest{Username: "frontdesk", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Username: "nobody", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveStaff(t *testing.T) {
	svc, authRepo := newAuthServiceForTest(t)
	user, err := svc.RegisterStaff(RegisterStaffRequest{Username: "frontdesk", Password: "s3cret-password"})
	require.NoError(t, err)

	stored := authRepo.users[user.Username]
	stored.IsActive = false
	authRepo.users[user.Username] = stored

	_, err = svc.Login(LoginRequest{Username: "frontdesk", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrStaffInactive)
}

func TestGetStaffProfile(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	user, err := svc.RegisterStaff(RegisterStaffRequest{Username: "frontdesk", Password: "s3cret-password"})
	require.NoError(t, err)

	profile, err := svc.GetStaffProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "frontdesk", profile.Username)
	assert.Empty(t, profile.PasswordHash)

	_, err = svc.GetStaffProfile(404)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}
