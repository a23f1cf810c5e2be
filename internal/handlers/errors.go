// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/catalog"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

// respondError translates service and domain errors into API responses.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var notFound *cart.NotFoundError
	var invalid *cart.InvalidStateError

	switch {
	case errors.As(err, &notFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyProductNotFound, notFound.Key))
	case errors.As(err, &invalid):
		utils.InvalidStateResponse(c, "INVALID_STATE", i18n.T(lang, i18n.KeyCartInvalidState, invalid.Key))
	case errors.Is(err, catalog.ErrFetch):
		utils.ServiceUnavailableResponse(c, "FETCH_ERROR", i18n.T(lang, i18n.KeyCatalogUnavailable), nil)
	case errors.Is(err, services.ErrSessionNotFound):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionExpired))
	case errors.Is(err, services.ErrEmptyCart):
		utils.InvalidStateResponse(c, "EMPTY_CART", i18n.T(lang, i18n.KeyCartEmpty))
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyOrderNotFound))
	case errors.Is(err, services.ErrPayment):
		logrus.WithError(err).Warn("Payment provider rejected checkout")
		utils.ErrorResponse(c, http.StatusBadGateway, "PAYMENT_FAILED", i18n.T(lang, i18n.KeyPaymentFailed), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		utils.InternalErrorResponse(c, "")
	}
}

// sessionID reads the session set by middleware.SessionRequired.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	idStr, exists := utils.GetSessionIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeySessionInvalid))
		return uuid.Nil, false
	}
	return id, true
}
