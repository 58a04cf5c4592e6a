// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyInternalError = "server.internal_error"
	KeyConflict      = "common.conflict"
	KeyForbidden     = "common.forbidden"
	KeyRateLimited   = "rate_limit.exceeded"
	KeyRouteNotFound = "common.route_not_found"
	KeyInvalidID     = "common.invalid_id"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthResetEmailSent     = "auth.reset_email_sent"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAuthResetTokenInvalid  = "auth.reset_token_invalid"
	KeyAuthResetTokenExpired  = "auth.reset_token_expired"

	// User Management
	KeyUserProfileUpdated  = "user.profile_updated"
	KeyUserNotFound        = "user.not_found"
	KeyUserCurrentPassword = "user.current_password_invalid"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"
	KeyProductStale    = "product.stale_version"

	// Cart
	KeyCartItemAdded         = "cart.item_added"
	KeyCartItemUpdated       = "cart.item_updated"
	KeyCartItemRemoved       = "cart.item_removed"
	KeyCartCleared           = "cart.cleared"
	KeyCartNotFound          = "cart.not_found"
	KeyCartEmpty             = "cart.empty"
	KeyCartInsufficientStock = "cart.insufficient_stock"
	KeyCartProductInactive   = "cart.product_unavailable"
	KeyCartBelowMinimum      = "cart.below_minimum"
	KeyCartChanged           = "cart.changed"

	// Orders
	KeyOrderPlaced            = "order.placed"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderCancelled         = "order.cancelled"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Messages
	KeyMessageSent             = "message.sent"
	KeyMessageNotFound         = "message.not_found"
	KeyMessageInvalidRecipient = "message.invalid_recipient"

	// Notifications
	KeyNotificationNotFound   = "notification.not_found"
	KeyNotificationMarkedRead = "notification.marked_read"

	// Notification content
	KeyNotifyOrderPlacedTitle = "notify.order_placed.title"
	KeyNotifyOrderPlacedBody  = "notify.order_placed.body"
	KeyNotifyOrderStatusTitle = "notify.order_status.title"
	KeyNotifyOrderStatusBody  = "notify.order_status.body"
	KeyNotifyNewMessageTitle  = "notify.new_message.title"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
