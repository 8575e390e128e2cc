// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired        = "auth.required"
	KeyAuthInvalidToken    = "auth.invalid_token"
	KeyAuthTokenExpired    = "auth.token_expired"
	KeyAuthLoginSuccess    = "auth.login_success"
	KeyAuthRegisterSuccess = "auth.register_success"

	// Products
	KeyProductCreated = "product.created"
	KeyProductUpdated = "product.updated"
	KeyProductDeleted = "product.deleted"

	// Curator reviews
	KeyReviewSubmitted = "review.submitted"

	// Customer reviews
	KeyCustomerReviewCreated = "customer_review.created"
	KeySellerResponseCreated = "customer_review.response_created"

	// Orders
	KeyOrderPlaced  = "order.placed"
	KeyOrderUpdated = "order.updated"

	// Redemptions
	KeyRedemptionCompleted = "redemption.completed"
	KeyRedeemableCreated   = "redeemable.created"
	KeyRedeemableUpdated   = "redeemable.updated"

	// Notifications
	KeyNotificationRead = "notification.read"

	// Admin
	KeyAdminActionSuccess = "admin.action_success"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)

// ErrorKey is the translation key for an error kind such as INSUFFICIENT_POINTS.
func ErrorKey(kind string) string {
	return "errors." + kind
}
