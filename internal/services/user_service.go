// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type UserService struct {
	store repository.Store
}

type UpdateUserProfileRequest struct {
	Name            *string         `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Company         *models.Company `json:"company,omitempty"`
	CurrentPassword string          `json:"currentPassword,omitempty"`
	NewPassword     string          `json:"newPassword,omitempty" validate:"omitempty,strong_password"`
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*models.PublicProfile, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUserNotFound
	}

	profile := user.Public()
	return &profile, nil
}

// UpdateProfile changes the password only when NewPassword is given and
// differs from the current one, after CurrentPassword verifies.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var patch repository.UserPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Company != nil {
		patch.Company = req.Company
	}

	if req.NewPassword != "" && user.CheckPassword(req.NewPassword) != nil {
		if user.CheckPassword(req.CurrentPassword) != nil {
			return nil, ErrCurrentPassword
		}
		if err := user.SetPassword(req.NewPassword); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &user.PasswordHash
	}

	updated, err := s.store.Users().Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return updated, nil
}
