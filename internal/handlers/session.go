// internal/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type SessionHandler struct {
	cartService *services.CartService
}

func NewSessionHandler(cartService *services.CartService) *SessionHandler {
	return &SessionHandler{
		cartService: cartService,
	}
}

// POST /sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	info, err := h.cartService.CreateSession()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, info)
}
