// internal/middleware/auth.go
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

const (
	CodeAuthRequired = "AUTH_REQUIRED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// AuthRequired verifies the bearer access token and reloads the user so that
// role and status changes apply immediately.
func AuthRequired(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, CodeAuthRequired, i18n.KeyAuthRequired)
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			utils.UnauthorizedResponse(c, CodeInvalidToken, i18n.KeyAuthInvalidToken)
			return
		}

		claims, err := utils.ValidateToken(token, utils.PurposeAccess)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.UnauthorizedResponse(c, CodeTokenExpired, i18n.KeyAuthTokenExpired)
				return
			}
			utils.UnauthorizedResponse(c, CodeInvalidToken, i18n.KeyAuthInvalidToken)
			return
		}

		user, err := loadActiveUser(c, store, claims.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logrus.WithError(err).Error("Failed to load authenticated user")
			}
			utils.UnauthorizedResponse(c, CodeInvalidToken, i18n.KeyAuthInvalidToken)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RoleRequired must run after AuthRequired.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c)
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}
		utils.ForbiddenResponse(c, "")
	}
}

// OptionalAuth resolves the caller when a valid token is present and never
// rejects the request.
func OptionalAuth(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(token, utils.PurposeAccess)
		if err != nil {
			c.Next()
			return
		}

		if user, err := loadActiveUser(c, store, claims.UserID); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func loadActiveUser(c *gin.Context, store repository.Store, rawID string) (*models.User, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, err := store.Users().Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set("user", user)
	c.Set("user_id", user.ID)
	c.Set("role", string(user.Role))
}
