// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ConfirmationView is the order confirmation summary.
type ConfirmationView struct {
	*services.Confirmation
	Message string `json:"message"`
}

// POST /cart/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	confirmation, err := h.orderService.Checkout(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyOrderConfirmed)
	if confirmation.Order.Status == models.OrderStatusPendingPayment {
		message = i18n.T(lang, i18n.KeyOrderPendingPayment)
	}
	utils.CreatedResponse(c, ConfirmationView{Confirmation: confirmation, Message: message})
}

// GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "order id"), nil)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}
