package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	memberships      []models.SchoolMembership
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) ListMemberships(ctx context.Context, userID string) ([]models.SchoolMembership, error) {
	return m.memberships, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthFixture(t *testing.T, active bool) (*AuthService, *mockAuthRepo, *auditStub) {
	t.Helper()
	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{
		user: &models.User{ID: "u1", Email: "user@example.com", FullName: "Ana", PasswordHash: string(password), Active: active},
		memberships: []models.SchoolMembership{
			{UserID: "u1", SchoolID: "5f0e8d1a-8a0b-4f7e-9a55-0f6b1c2d3e4f", Role: models.RolePedagogo},
			{UserID: "u1", SchoolID: "b7c6d5e4-1a2b-4c3d-8e9f-0a1b2c3d4e5f", Role: models.RoleGestor, IsDefault: true},
		},
	}
	audit := &auditStub{}
	svc := NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
	return svc, repo, audit
}

func TestAuthServiceLoginUsesDefaultMembership(t *testing.T) {
	svc, repo, audit := newAuthFixture(t, true)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleGestor, res.User.Role)
	assert.Equal(t, "b7c6d5e4-1a2b-4c3d-8e9f-0a1b2c3d4e5f", res.User.SchoolID)
	assert.Len(t, res.User.Memberships, 2)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	role, ok := claims.RoleIn("5f0e8d1a-8a0b-4f7e-9a55-0f6b1c2d3e4f")
	assert.True(t, ok)
	assert.Equal(t, models.RolePedagogo, role)
}

func TestAuthServiceLoginRequestedSchool(t *testing.T) {
	svc, _, _ := newAuthFixture(t, true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "user@example.com", Password: "password", SchoolID: "5f0e8d1a-8a0b-4f7e-9a55-0f6b1c2d3e4f",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePedagogo, res.User.Role)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email: "user@example.com", Password: "password", SchoolID: "00000000-0000-4000-8000-000000000000",
	})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, repo, _ := newAuthFixture(t, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	repo.user.Active = true
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "other@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	repo.memberships = nil
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _, _ := newAuthFixture(t, true)
	other := NewAuthService(&mockAuthRepo{}, nil, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	token, err := other.generateAccessToken(&models.User{ID: "u1"}, models.SchoolMembership{SchoolID: "s"}, nil, time.Now())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
