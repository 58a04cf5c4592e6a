// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/config"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type AuthService struct {
	store         repository.Store
	cfg           *config.Config
	notifications *NotificationService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,min=2,max=100"`
	Email    string         `json:"email" validate:"required,email,max=255"`
	Password string         `json:"password" validate:"required,strong_password"`
	Role     models.Role    `json:"role" validate:"required,oneof=buyer supplier"`
	Company  models.Company `json:"company"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int          `json:"expiresIn"` // in seconds
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"password" validate:"required,strong_password"`
}

func NewAuthService(store repository.Store, cfg *config.Config, notifications *NotificationService) *AuthService {
	return &AuthService{
		store:         store,
		cfg:           cfg,
		notifications: notifications,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &models.User{
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Role:    req.Role,
		Status:  models.UserStatusActive,
		Company: req.Company,
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}

	now := time.Now()
	if _, err := s.store.Users().Update(ctx, user.ID, repository.UserPatch{LastLoginAt: &now}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	claims, err := utils.ValidateToken(req.RefreshToken, utils.PurposeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.GetUserByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}

	return s.issueTokens(user)
}

// ForgotPassword never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return &ValidationError{Err: err}
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.Debug("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.issueResetToken(ctx, user)
	if err != nil {
		return err
	}

	if err := s.notifications.SendPasswordResetEmail(user, token); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
	}

	return nil
}

// issueResetToken signs a reset-purpose token and stores only its digest.
// Issuing a new token invalidates the previous one.
func (s *AuthService) issueResetToken(ctx context.Context, user *models.User) (string, error) {
	token, expiresAt, err := utils.GenerateResetToken(user.ID, user.Email, s.cfg.JWT.ResetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	_, err = s.store.Users().Update(ctx, user.ID, repository.UserPatch{
		ResetToken: &models.ResetToken{TokenHash: utils.HashString(token), ExpiresAt: &expiresAt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return &ValidationError{Err: err}
	}

	claims, err := utils.ValidateToken(req.Token, utils.PurposeReset)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return ErrResetTokenExpired
		}
		return ErrInvalidResetToken
	}
	userID := uuid.MustParse(claims.UserID)

	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		stored := user.ResetToken
		if stored.TokenHash == "" || stored.TokenHash != utils.HashString(req.Token) {
			return ErrInvalidResetToken
		}
		if stored.ExpiresAt == nil || time.Now().After(*stored.ExpiresAt) {
			return ErrResetTokenExpired
		}

		if err := user.SetPassword(req.NewPassword); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		_, err = tx.Users().Update(ctx, user.ID, repository.UserPatch{
			PasswordHash: &user.PasswordHash,
			ResetToken:   &models.ResetToken{},
		})
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		logrus.WithField("user_id", user.ID).Info("Password reset")
		return nil
	})
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
