// internal/handlers/cart.go
package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

const heartbeatInterval = 25 * time.Second

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// CartView is what the cart panel renders from.
type CartView struct {
	Items   []cart.Product  `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Version uint64          `json:"version"`
	Message string          `json:"message,omitempty"`
}

func newCartView(snap cart.Snapshot, message string) CartView {
	items := snap.Cart
	if items == nil {
		items = []cart.Product{}
	}
	return CartView{
		Items:   items,
		Total:   snap.Total,
		Count:   snap.Count,
		Version: snap.Version,
		Message: message,
	}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.cartService.Snapshot(id)
	if err != nil {
		respondError(c, err)
		return
	}

	message := ""
	if snap.Count == 0 {
		message = i18n.T(utils.GetLangFromContext(c), i18n.KeyCartEmpty)
	}
	utils.SuccessResponse(c, newCartView(snap, message))
}

// POST /cart/items/:key
func (h *CartHandler) AddItem(c *gin.Context) {
	h.apply(c, cart.OpAdd, c.Param("key"))
}

// POST /cart/items/:key/:action
func (h *CartHandler) StepItem(c *gin.Context) {
	action := c.Param("action")
	op, ok := cart.ParseStep(action)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"action": action,
			"key":    c.Param("key"),
		}).Debug("Ignoring unknown cart action")
		utils.NotFoundResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyCartUnknownStep, action))
		return
	}

	h.apply(c, op, c.Param("key"))
}

// DELETE /cart/items/:key
func (h *CartHandler) RemoveItem(c *gin.Context) {
	h.apply(c, cart.OpRemove, c.Param("key"))
}

// POST /cart/reset
func (h *CartHandler) Reset(c *gin.Context) {
	h.apply(c, cart.OpReset, "")
}

func (h *CartHandler) apply(c *gin.Context, op cart.Op, key string) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.cartService.Apply(id, op, key)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, newCartView(snap, h.message(c, op, snap, key)))
}

func (h *CartHandler) message(c *gin.Context, op cart.Op, snap cart.Snapshot, key string) string {
	lang := utils.GetLangFromContext(c)

	name := key
	for _, p := range snap.Catalog {
		if p.Key == key {
			name = p.Name
			break
		}
	}

	switch op {
	case cart.OpAdd:
		return i18n.T(lang, i18n.KeyCartItemAdded, name)
	case cart.OpIncrease, cart.OpDecrease:
		return i18n.T(lang, i18n.KeyCartItemUpdated)
	case cart.OpRemove:
		return i18n.T(lang, i18n.KeyCartItemRemoved, name)
	case cart.OpReset:
		return i18n.T(lang, i18n.KeyCartReset)
	}
	return ""
}

// GET /cart/events
func (h *CartHandler) Events(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	updates, cancel, err := h.cartService.Watch(id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		// pending snapshots go out before a disconnect is noticed
		select {
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("cart", newCartView(snap, ""))
			return true
		default:
		}

		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-updates:
			// closed when the session expires
			if !ok {
				return false
			}
			c.SSEvent("cart", newCartView(snap, ""))
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
		}
		return true
	})

	logrus.WithField("session_id", id).Debug("Cart event stream closed")
}
