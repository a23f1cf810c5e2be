// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyError             = "error"
	KeyInternalError     = "internal_error"
	KeyValidationInvalid = "validation.invalid"
	KeyRouteNotFound     = "route.not_found"

	// Sessions
	KeySessionRequired = "session.required"
	KeySessionInvalid  = "session.invalid"
	KeySessionExpired  = "session.expired"
	KeySessionCreated  = "session.created"

	// Catalog
	KeyCatalogUnavailable    = "catalog.unavailable"
	KeyProductNotFound       = "product.not_found"
	KeyProductInvalidKey     = "product.invalid_key"
	KeyCatalogRequestLimited = "catalog.rate_limited"

	// Cart
	KeyCartItemAdded    = "cart.item_added"
	KeyCartItemUpdated  = "cart.item_updated"
	KeyCartItemRemoved  = "cart.item_removed"
	KeyCartReset        = "cart.reset"
	KeyCartInvalidState = "cart.invalid_state"
	KeyCartEmpty        = "cart.empty"
	KeyCartUnknownStep  = "cart.unknown_action"

	// Orders
	KeyOrderConfirmed      = "order.confirmed"
	KeyOrderPendingPayment = "order.pending_payment"
	KeyOrderNotFound       = "order.not_found"
	KeyPaymentFailed       = "payment.failed"
)
