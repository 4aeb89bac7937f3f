package service_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

const testJWTSecret = "unit-test-secret"

func newUserFixture(t *testing.T) (service.UserService, *memUserRepo, model.User) {
	t.Helper()

	repo := newMemUserRepo()
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	user := repo.add(model.User{
		Username: "maahir",
		Email:    "maahir@example.com",
		Password: string(hashed),
		Role:     model.RoleManager,
	})

	return service.NewUserService(repo, []byte(testJWTSecret)), repo, user
}

func TestLogin_IssuesSignedAccessToken(t *testing.T) {
	svc, repo, user := newUserFixture(t)

	resp, err := svc.Login(context.Background(), service.LoginUserRequest{
		Username: "maahir",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	parsed, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleManager, claims["role"])

	assert.Equal(t, "maahir", resp.User.Username)
	assert.True(t, resp.User.IsApprover)

	// refresh token is persisted for later rotation
	stored, err := repo.GetRefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Login(context.Background(), service.LoginUserRequest{
		Username: "maahir",
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidLogin)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Login(context.Background(), service.LoginUserRequest{
		Username: "nobody",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, service.ErrInvalidLogin)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	login, err := svc.Login(context.Background(), service.LoginUserRequest{
		Username: "maahir",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the consumed token is single-use
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidLogin)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	login, err := svc.Login(context.Background(), service.LoginUserRequest{
		Username: "maahir",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidLogin)
}

func TestCreateUser_RejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "maahir",
		Email:    "other@example.com",
		Password: "another-pass",
		Role:     model.RoleEmployee,
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
