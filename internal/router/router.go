// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/handlers"
	"github.com/javajoker/storefront/internal/middleware"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

const version = "1.0.0"

// Initialize wires the HTTP API over the given catalog and cart services.
// Both are owned by the caller, which loads the catalog and runs the
// session janitor.
func Initialize(db *gorm.DB, cfg *config.Config, catalogService *services.CatalogService, cartService *services.CartService) *gin.Engine {
	// Initialize services
	paymentProvider := services.NewPaymentProvider(cfg.Payment)
	orderService := services.NewOrderService(db, cartService, paymentProvider, cfg.Payment.Currency)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService, cartService)
	sessionHandler := handlers.NewSessionHandler(cartService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := catalogService.Status()
		body := gin.H{
			"status":   "healthy",
			"version":  version,
			"catalog":  status,
			"sessions": cartService.ActiveSessions(),
		}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
		if !status.Ready {
			body["status"] = "degraded"
		}
		c.JSON(http.StatusOK, body)
	})

	requestLimit := middleware.RequestRateLimit(cfg.RateLimit)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Catalog routes
		catalog := v1.Group("/catalog")
		catalog.Use(middleware.OptionalSession(), requestLimit)
		{
			catalog.GET("", catalogHandler.GetProducts)
			catalog.GET("/categories", catalogHandler.GetCategories)
			catalog.GET("/:key", catalogHandler.GetProduct)
		}

		// Session routes
		v1.POST("/sessions",
			middleware.SessionRateLimit(cfg.RateLimit),
			middleware.CatalogReady(catalogService),
			sessionHandler.CreateSession,
		)

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(middleware.SessionRequired(), middleware.CatalogReady(catalogService), requestLimit)
		{
			cart.GET("", cartHandler.GetCart)
			cart.GET("/events", cartHandler.Events)
			cart.POST("/items/:key", cartHandler.AddItem)
			cart.POST("/items/:key/:action", cartHandler.StepItem)
			cart.DELETE("/items/:key", cartHandler.RemoveItem)
			cart.POST("/reset", cartHandler.Reset)
			cart.POST("/checkout", orderHandler.Checkout)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.SessionRequired(), requestLimit)
		{
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Debug("No route")
		utils.NotFoundResponse(c, "")
	})

	return r
}
