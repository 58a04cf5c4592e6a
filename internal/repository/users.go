// internal/repository/users.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type UserFilter struct {
	Role       models.Role
	Status     models.UserStatus
	Search     string
	Pagination utils.PaginationParams
}

// UserPatch updates only the non-nil fields.
type UserPatch struct {
	Name         *string
	Company      *models.Company
	PasswordHash *string
	Status       *models.UserStatus
	ResetToken   *models.ResetToken
	LastLoginAt  *time.Time
}

type UserRepository interface {
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

var userSortFields = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"email":     "email",
}

func (r *userRepo) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(name LIKE ? OR email LIKE ? OR company_name LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	query = utils.ApplySort(query, filter.Pagination, userSortFields)
	if err := utils.ApplyPagination(query, filter.Pagination).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Company != nil {
		c := patch.Company
		updates["company_name"] = c.Name
		updates["company_registration_number"] = c.RegistrationNumber
		updates["company_tax_id"] = c.TaxID
		updates["company_phone"] = c.Phone
		updates["company_website"] = c.Website
		updates["company_address"] = c.Address
	}
	if patch.PasswordHash != nil {
		updates["password_hash"] = *patch.PasswordHash
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.ResetToken != nil {
		updates["reset_token_hash"] = patch.ResetToken.TokenHash
		updates["reset_expires_at"] = patch.ResetToken.ExpiresAt
	}
	if patch.LastLoginAt != nil {
		updates["last_login_at"] = *patch.LastLoginAt
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.Get(ctx, id)
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
