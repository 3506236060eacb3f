package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListMemberships(ctx context.Context, userID string) ([]models.SchoolMembership, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// Login authenticates a user and issues an access token bound to one of their schools. The
// requested school wins when the user belongs to it; otherwise the default membership is used.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	memberships, err := s.repo.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load memberships")
	}
	active, err := pickMembership(memberships, req.SchoolID)
	if err != nil {
		return nil, err
	}

	compact := make([]models.Membership, 0, len(memberships))
	for _, m := range memberships {
		compact = append(compact, models.Membership{SchoolID: m.SchoolID, Role: m.Role})
	}

	issuedAt := s.now()
	accessToken, err := s.generateAccessToken(user, active, compact, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	if s.audit != nil {
		school := active.SchoolID
		target := "user:" + user.ID
		if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
			SchoolID: &school,
			Action:   models.AuditActionLogin,
			ActorID:  &user.ID,
			Target:   &target,
			Summary:  "User signed in",
			Payload:  []byte(fmt.Sprintf(`{"ip":%q,"user_agent":%q}`, req.IP, req.UserAgent)),
		}); err != nil {
			s.logger.Warn("failed to record login audit log", zap.Error(err))
		}
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			ID:          user.ID,
			Email:       user.Email,
			FullName:    user.FullName,
			Role:        active.Role,
			SchoolID:    active.SchoolID,
			Memberships: compact,
		},
	}, nil
}

// Profile returns the current user with their memberships.
func (s *AuthService) Profile(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	memberships, err := s.repo.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load memberships")
	}
	compact := make([]models.Membership, 0, len(memberships))
	for _, m := range memberships {
		compact = append(compact, models.Membership{SchoolID: m.SchoolID, Role: m.Role})
	}
	return &models.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        claims.Role,
		SchoolID:    claims.SchoolID,
		Memberships: compact,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func pickMembership(memberships []models.SchoolMembership, requested string) (models.SchoolMembership, error) {
	if len(memberships) == 0 {
		return models.SchoolMembership{}, appErrors.Clone(appErrors.ErrForbidden, "user has no school membership")
	}
	if requested != "" {
		for _, m := range memberships {
			if m.SchoolID == requested {
				return m, nil
			}
		}
		return models.SchoolMembership{}, appErrors.Clone(appErrors.ErrForbidden, "user is not a member of the requested school")
	}
	for _, m := range memberships {
		if m.IsDefault {
			return m, nil
		}
	}
	return memberships[0], nil
}

func (s *AuthService) generateAccessToken(user *models.User, active models.SchoolMembership, memberships []models.Membership, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:      user.ID,
		Role:        active.Role,
		Email:       user.Email,
		FullName:    user.FullName,
		SchoolID:    active.SchoolID,
		Memberships: memberships,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
