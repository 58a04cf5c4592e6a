// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/cache"
	"github.com/javajoker/b2b-marketplace/internal/config"
	"github.com/javajoker/b2b-marketplace/internal/database"
	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/handlers"
	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/middleware"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

// Dependencies are the optional outbound integrations. Nil values fall back
// to no-op implementations.
type Dependencies struct {
	Publisher   events.Publisher
	Idempotency cache.IdempotencyStore
	Mailer      services.Mailer
}

// Initialize wires services, handlers and routes. The returned func stops
// background workers owned by the router.
func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) (*gin.Engine, func(), error) {
	if deps.Mailer == nil {
		deps.Mailer = services.NewMailer(cfg.Email)
	}

	store := repository.NewStore(db, database.TxOptions{
		MaxRetries:  cfg.Database.MaxRetries,
		BaseBackoff: database.DefaultTxOptions().BaseBackoff,
	})

	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, nil, err
	}
	notificationService := services.NewNotificationService(store, deps.Mailer, cfg)
	authService := services.NewAuthService(store, cfg, notificationService)
	userService := services.NewUserService(store)
	productService := services.NewProductService(store, storageService)
	cartService := services.NewCartService(store)
	checkoutService := services.NewCheckoutService(store, notificationService, deps.Publisher, deps.Idempotency)
	orderService := services.NewOrderService(store, notificationService, deps.Publisher)
	messageService := services.NewMessageService(store, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	messageHandler := handlers.NewMessageHandler(messageService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	generalLimit, authLimit := middleware.Passthrough(), middleware.Passthrough()
	cleanup := func() {}
	if cfg.RateLimit.Enabled {
		general := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.GeneralRPS), cfg.RateLimit.GeneralBurst)
		auth := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.AuthRPS), cfg.RateLimit.AuthBurst)
		generalLimit, authLimit = general.Middleware(), auth.Middleware()
		cleanup = func() {
			general.Stop()
			auth.Stop()
		}
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.IsProduction()))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	r.GET("/health", healthHandler(db))
	r.Static(services.LocalUploadPrefix, cfg.AWS.LocalUploadDir)

	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND",
			i18n.T(utils.GetLangFromContext(c), i18n.KeyRouteNotFound), nil)
	})

	requireAuth := middleware.AuthRequired(store)
	optionalAuth := middleware.OptionalAuth(store)
	sellers := middleware.RoleRequired(models.RoleSupplier, models.RoleAdmin)

	api := r.Group("/api")
	api.Use(generalLimit, middleware.AuditLogMiddleware(store))
	{
		// Authentication routes
		auth := api.Group("/auth")
		auth.Use(authLimit)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/:id/public", userHandler.GetPublicProfile)
			users.GET("/profile", requireAuth, userHandler.GetProfile)
			users.PUT("/profile", requireAuth, userHandler.UpdateProfile)
		}

		// Product routes
		products := api.Group("/products")
		{
			products.GET("", optionalAuth, productHandler.GetProducts)
			products.GET("/mine", requireAuth, sellers, productHandler.GetMyProducts)
			products.GET("/:id", optionalAuth, productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(requireAuth, sellers)
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.POST("/upload-images", productHandler.UploadProductImages)
			}
		}

		// Cart routes
		cart := api.Group("/cart")
		cart.Use(requireAuth)
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("/add", cartHandler.AddItem)
			cart.PUT("/update/:productId", cartHandler.UpdateItem)
			cart.DELETE("/remove/:productId", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.Clear)
			cart.POST("/checkout", cartHandler.Checkout)
		}

		// Order routes
		orders := api.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.GET("", orderHandler.ListMine)
			orders.GET("/supplier", sellers, orderHandler.ListForSupplier)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/status", orderHandler.UpdateStatus)
			orders.POST("/:id/cancel", orderHandler.Cancel)
		}

		// Message routes
		messages := api.Group("/messages")
		messages.Use(requireAuth)
		{
			messages.GET("", messageHandler.List)
			messages.GET("/conversations", messageHandler.Conversations)
			messages.GET("/unread-count", messageHandler.UnreadCount)
			messages.POST("", messageHandler.Send)
			messages.PUT("/:id/read", messageHandler.MarkRead)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r, cleanup, nil
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"version":  "1.0.0",
			"database": code == http.StatusOK,
		})
	}
}
