// internal/middleware/catalog.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

// CatalogReady holds cart routes back with FETCH_ERROR until the catalog
// has been loaded.
func CatalogReady(catalogs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := catalogs.Catalog(); err != nil {
			lang := utils.GetLangFromContext(c)
			utils.ServiceUnavailableResponse(c, "FETCH_ERROR", i18n.T(lang, i18n.KeyCatalogUnavailable), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
