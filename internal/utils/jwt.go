// internal/utils/jwt.go
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenPurpose separates access, refresh and password-reset tokens signed
// with the same key.
type TokenPurpose string

const (
	PurposeAccess  TokenPurpose = "access"
	PurposeRefresh TokenPurpose = "refresh"
	PurposeReset   TokenPurpose = "reset"
)

const tokenIssuer = "b2b-marketplace"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenPurpose = errors.New("token purpose mismatch")
)

type JWTClaims struct {
	UserID  string       `json:"userId"`
	Email   string       `json:"email"`
	Role    string       `json:"role"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateToken(userID uuid.UUID, email, role string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:  userID.String(),
		Email:   email,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func GenerateJWT(userID uuid.UUID, email, role string, ttlHours int) (string, error) {
	return GenerateToken(userID, email, role, PurposeAccess, time.Duration(ttlHours)*time.Hour)
}

func GenerateRefreshToken(userID uuid.UUID, ttlHours int) (string, error) {
	return GenerateToken(userID, "", "", PurposeRefresh, time.Duration(ttlHours)*time.Hour)
}

func GenerateResetToken(userID uuid.UUID, email string, ttlMinutes int) (string, time.Time, error) {
	ttl := time.Duration(ttlMinutes) * time.Minute
	token, err := GenerateToken(userID, email, "", PurposeReset, ttl)
	return token, time.Now().Add(ttl), err
}

// ValidateToken verifies signature, expiry and purpose. Expired tokens yield
// ErrTokenExpired, a wrong purpose ErrTokenPurpose, anything else
// ErrTokenInvalid.
func ValidateToken(tokenString string, purpose TokenPurpose) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenPurpose
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	return ValidateToken(tokenString, PurposeAccess)
}
