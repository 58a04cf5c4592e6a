// internal/models/user.go
package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	SoftDelete
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Company      Company    `json:"company" gorm:"embedded;embeddedPrefix:company_"`
	ResetToken   ResetToken `json:"-" gorm:"embedded;embeddedPrefix:reset_"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

type Company struct {
	Name               string `json:"name" gorm:"size:200"`
	RegistrationNumber string `json:"registrationNumber" gorm:"size:100"`
	TaxID              string `json:"taxId" gorm:"size:100"`
	Phone              string `json:"phone" gorm:"size:50"`
	Website            string `json:"website" gorm:"size:255"`
	Address            string `json:"address" gorm:"size:500"`
}

// ResetToken holds the digest of the single outstanding password-reset token.
type ResetToken struct {
	TokenHash string     `gorm:"size:64"`
	ExpiresAt *time.Time
}

// PublicProfile is what other marketplace members may see.
type PublicProfile struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	Company Company `json:"company"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID.String(), Name: u.Name, Role: u.Role, Company: u.Company}
}
