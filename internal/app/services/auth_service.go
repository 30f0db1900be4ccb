package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
	"github.com/blindgrade/blindgrade/internal/pkg/auth"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
)

// UserAccountStore is the user persistence needed by the auth service
type UserAccountStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CustodianExists(ctx context.Context) (bool, error)
	GetByRole(ctx context.Context, role models.RoleType) ([]*models.User, error)
}

// RefreshTokenStore is the refresh token persistence needed by the auth service
type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenUserID(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	userStore  UserAccountStore
	tokenStore RefreshTokenStore
	jwtService *auth.JWTService
}

// NewAuthService creates a new auth service
func NewAuthService(userStore UserAccountStore, tokenStore RefreshTokenStore, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userStore:  userStore,
		tokenStore: tokenStore,
		jwtService: jwtService,
	}
}

// Register creates a new faculty account. Custodian accounts are never created
// here; they only come from the one-time seed.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userStore.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashedPassword,
		RoleType: models.RoleFaculty,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("Registered new faculty user")

	return toUserResponse(user), nil
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken rotates the token pair from a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.tokenStore.GetTokenUserID(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Single-use refresh tokens: the old one dies with the rotation
	if err := s.tokenStore.RevokeToken(ctx, refreshToken); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke rotated refresh token")
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes all refresh tokens of the user
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.tokenStore.RevokeAllUserTokens(ctx, userID)
}

// SeedCustodian creates the custodian account. It succeeds exactly once; any
// later call conflicts.
func (s *AuthService) SeedCustodian(ctx context.Context, req *dto.SeedCustodianRequest) (*dto.UserResponse, error) {
	exists, err := s.userStore.CustodianExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("error checking custodian: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrConflict, "custodian account already exists")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashedPassword,
		RoleType: models.RoleCustodian,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", user.ID).Msg("Seeded custodian account")

	return toUserResponse(user), nil
}

// GetProfile returns the account of the authenticated user
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// GetFaculty lists all faculty users eligible for evaluator assignment
func (s *AuthService) GetFaculty(ctx context.Context) ([]*dto.UserResponse, error) {
	users, err := s.userStore.GetByRole(ctx, models.RoleFaculty)
	if err != nil {
		return nil, fmt.Errorf("error retrieving faculty: %w", err)
	}

	responses := make([]*dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	return responses, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	expiry := s.jwtService.GetRefreshTokenExpiry()
	if err := s.tokenStore.CreateToken(ctx, refreshToken, user.ID, expiry); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		User:             *toUserResponse(user),
	}, nil
}

func toUserResponse(user *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.RoleType),
	}
}
