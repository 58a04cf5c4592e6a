// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

const (
	CodeEmptyCart         = "EMPTY_CART"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeBelowMinimum      = "BELOW_MIN_ORDER_QUANTITY"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeInvalidFile       = "INVALID_FILE"
)

// respondError maps a service error onto the response envelope. Anything it
// does not recognise is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErr *services.ValidationError
	var stockErr *services.InsufficientStockError
	var transitionErr *services.InvalidTransitionError
	var minimumErr *services.BelowMinimumError

	switch {
	case errors.As(err, &validationErr):
		if details := utils.GetValidationErrors(validationErr.Err); len(details) > 0 {
			utils.ValidationErrorResponse(c, details)
			return
		}
		utils.BadRequestResponse(c, "", nil)

	case errors.As(err, &stockErr):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInsufficientStock,
			i18n.T(lang, i18n.KeyCartInsufficientStock, stockErr.ProductName), stockErr)

	case errors.As(err, &minimumErr):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeBelowMinimum,
			i18n.T(lang, i18n.KeyCartBelowMinimum, minimumErr.ProductName, minimumErr.Minimum), minimumErr)

	case errors.As(err, &transitionErr):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInvalidTransition,
			i18n.T(lang, i18n.KeyOrderInvalidTransition, transitionErr.From, transitionErr.To),
			gin.H{"from": transitionErr.From, "to": transitionErr.To})

	case errors.Is(err, services.ErrEmptyCart):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeEmptyCart, i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrProductUnavailable):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartProductInactive), nil)
	case errors.Is(err, services.ErrInvalidRecipient):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyMessageInvalidRecipient), nil)
	case errors.Is(err, services.ErrInvalidResetToken):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthResetTokenInvalid), nil)
	case errors.Is(err, services.ErrResetTokenExpired):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthResetTokenExpired), nil)
	case errors.Is(err, services.ErrCurrentPassword):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUserCurrentPassword), nil)
	case errors.Is(err, services.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInvalidFile, i18n.T(lang, i18n.KeyFileTooLarge), nil)
	case errors.Is(err, services.ErrFileTypeInvalid):
		utils.ErrorResponse(c, http.StatusBadRequest, CodeInvalidFile, i18n.T(lang, i18n.KeyFileInvalidType), nil)

	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, "INVALID_CREDENTIALS", i18n.KeyAuthInvalidCredentials)
	case errors.Is(err, services.ErrInvalidRefreshToken):
		utils.UnauthorizedResponse(c, "INVALID_TOKEN", i18n.KeyAuthInvalidToken)

	case errors.Is(err, services.ErrAccountSuspended):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthAccountSuspended))
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")

	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrCartLineNotFound):
		utils.NotFoundResponse(c, "cart")
	case errors.Is(err, services.ErrMessageNotFound):
		utils.NotFoundResponse(c, "message")
	case errors.Is(err, services.ErrNotificationNotFound):
		utils.NotFoundResponse(c, "notification")

	case errors.Is(err, services.ErrEmailTaken):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))
	case errors.Is(err, services.ErrStaleProduct):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductStale))
	case errors.Is(err, services.ErrCartChanged):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCartChanged))
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrStaleVersion):
		utils.ConflictResponse(c, "")

	default:
		logrus.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c, err)
	}
}

// bindJSON decodes the body, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// currentActor reads the user resolved by the auth middleware.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "AUTH_REQUIRED", i18n.KeyAuthRequired)
		return services.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(c)
	return services.Actor{ID: userID, Role: models.Role(role)}, true
}
