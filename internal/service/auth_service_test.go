package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	userByID       *models.User
	findByEmailErr error
	findByIDErr    error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	return m.userByEmail, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "uniportal"}
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           20231001,
		Name:         "Sara Ahmed",
		Email:        "sara@uni.edu",
		Type:         models.UserTypeStudent,
		PasswordHash: hashedPassword(t, "secret123"),
	}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.UserTypeStudent, resp.User.Type)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(20231001), claims.UserID)
	assert.Equal(t, models.UserTypeStudent, claims.Type)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           1,
		Email:        "sara@uni.edu",
		PasswordHash: hashedPassword(t, "secret123"),
	}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@uni.edu", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "missing@uni.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInvalidPayload(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Expiration = -time.Minute
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           1,
		Email:        "sara@uni.edu",
		PasswordHash: hashedPassword(t, "secret123"),
	}}
	svc := NewAuthService(repo, nil, nil, cfg)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "sara@uni.edu", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
