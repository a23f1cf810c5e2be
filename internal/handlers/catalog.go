// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	cartService    *services.CartService
}

func NewCatalogHandler(catalogService *services.CatalogService, cartService *services.CartService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		cartService:    cartService,
	}
}

// GET /catalog
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	products, err := h.products(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if category := c.Query("category"); category != "" {
		filtered := products[:0]
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	utils.SuccessResponse(c, products)
}

// GET /catalog/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	cat, err := h.catalogService.Catalog()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, cat.Categories())
}

// GET /catalog/:key
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	key := c.Param("key")

	if err := utils.ValidateVar(key, "required,product_key"); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductInvalidKey), utils.GetValidationErrors(err))
		return
	}

	if snap, ok := h.snapshot(c); ok {
		for _, p := range snap.Catalog {
			if p.Key == key {
				utils.SuccessResponse(c, p)
				return
			}
		}
		respondError(c, &cart.NotFoundError{Key: key})
		return
	}

	cat, err := h.catalogService.Catalog()
	if err != nil {
		respondError(c, err)
		return
	}
	record, ok := cat.Lookup(key)
	if !ok {
		respondError(c, &cart.NotFoundError{Key: key})
		return
	}
	utils.SuccessResponse(c, cart.Unselected(key, record))
}

// products returns the catalog with the caller's selection state layered on
// when the request belongs to a live session.
func (h *CatalogHandler) products(c *gin.Context) ([]cart.Product, error) {
	if snap, ok := h.snapshot(c); ok {
		return snap.Catalog, nil
	}

	cat, err := h.catalogService.Catalog()
	if err != nil {
		return nil, err
	}
	m, err := cart.NewManager(cat.Records())
	if err != nil {
		return nil, err
	}
	return m.Catalog(), nil
}

func (h *CatalogHandler) snapshot(c *gin.Context) (cart.Snapshot, bool) {
	idStr, ok := utils.GetSessionIDFromContext(c)
	if !ok {
		return cart.Snapshot{}, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return cart.Snapshot{}, false
	}
	snap, err := h.cartService.Snapshot(id)
	if err != nil {
		return cart.Snapshot{}, false
	}
	return snap, true
}
