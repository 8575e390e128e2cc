// internal/router/router.go
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/handlers"
	"github.com/javajoker/curated-market/internal/metrics"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

// Initialize wires services, handlers and routes. Background cleanup stops when ctx is done.
func Initialize(ctx context.Context, db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	pointsService := services.NewPointsService(db)

	authService := services.NewAuthService(db, cfg.JWT)
	userService := services.NewUserService(db, pointsService)
	productService := services.NewProductService(db)
	reviewService := services.NewReviewService(db, cfg.Review, pointsService, notificationService)
	redemptionService := services.NewRedemptionService(db, pointsService, notificationService)
	orderService := services.NewOrderService(db, cfg.Order, notificationService)
	customerReviewService := services.NewCustomerReviewService(db, notificationService)
	adminService := services.NewAdminService(db, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, pointsService)
	productHandler := handlers.NewProductHandler(productService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	customerReviewHandler := handlers.NewCustomerReviewHandler(customerReviewService)
	orderHandler := handlers.NewOrderHandler(orderService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)
	limiters.StartCleanup(ctx.Done())

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	r.Use(limiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", healthHandler(db))

	auth := middleware.AuthRequired()
	optionalAuth := middleware.OptionalAuth()
	can := middleware.RequireCapability

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		authRoutes := v1.Group("/auth")
		authRoutes.Use(limiters.Auth.Middleware())
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.RefreshToken)
			authRoutes.GET("/me", auth, authHandler.GetProfile)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/products", optionalAuth, productHandler.GetSellerProducts)

			protected := users.Group("/me")
			protected.Use(auth)
			{
				protected.PUT("", userHandler.UpdateProfile)
				protected.GET("/points", userHandler.GetPointsSummary)
				protected.GET("/points/history", userHandler.GetPointsHistory)
				protected.GET("/orders", orderHandler.ListMyOrders)
				protected.GET("/sales", can(services.CapProductCreate), orderHandler.ListSellerOrders)
				protected.GET("/products", can(services.CapProductCreate), productHandler.GetMyProducts)
				protected.GET("/redemptions", can(services.CapPointsRedeem), redemptionHandler.ListMyRedemptions)
				protected.GET("/reviews", can(services.CapReviewSubmit), reviewHandler.ListMyReviews)
			}
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", optionalAuth, productHandler.GetProduct)
			products.GET("/:id/curation", optionalAuth, reviewHandler.ListProductReviews)
			products.GET("/:id/reviews", customerReviewHandler.ListProductReviews)

			protected := products.Group("")
			protected.Use(auth)
			{
				protected.POST("", can(services.CapProductCreate), productHandler.CreateProduct)
				protected.PUT("/:id", can(services.CapProductCreate), productHandler.UpdateProduct)
				protected.DELETE("/:id", can(services.CapProductCreate), productHandler.DeleteProduct)
				protected.POST("/:id/curation", can(services.CapReviewSubmit), reviewHandler.SubmitReview)
				protected.POST("/:id/orders", can(services.CapOrderPlace), orderHandler.PlaceOrder)
				protected.POST("/:id/reviews", can(services.CapCustomerReviewCreate), customerReviewHandler.CreateReview)
			}
		}

		// Curation routes
		curation := v1.Group("/curation")
		curation.Use(auth)
		{
			curation.GET("/queue", can(services.CapReviewQueue), reviewHandler.GetQueue)
			curation.GET("/reviews/:id", reviewHandler.GetReview)
		}

		// Customer review responses
		reviews := v1.Group("/reviews")
		reviews.Use(auth)
		{
			reviews.POST("/:id/response", can(services.CapSellerResponseCreate), customerReviewHandler.RespondToReview)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(auth)
		{
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/status", orderHandler.UpdatePaymentStatus)
		}

		// Redemption catalog
		redeemables := v1.Group("/redeemables")
		{
			redeemables.GET("", redemptionHandler.ListCatalog)
			redeemables.GET("/:id", optionalAuth, redemptionHandler.GetRedeemable)
			redeemables.POST("/:id/redeem", auth, can(services.CapPointsRedeem), redemptionHandler.Redeem)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(auth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(auth)
		{
			admin.GET("/dashboard/stats", can(services.CapUserManage), adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", can(services.CapUserManage), adminHandler.GetAuditLogs)

			adminUsers := admin.Group("/users")
			adminUsers.Use(can(services.CapUserManage))
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/role", adminHandler.UpdateUserRole)
				adminUsers.PUT("/:id/curator-approval", adminHandler.SetCuratorApproval)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminRedeemables := admin.Group("/redeemables")
			adminRedeemables.Use(can(services.CapRedeemableManage))
			{
				adminRedeemables.POST("", redemptionHandler.CreateRedeemable)
				adminRedeemables.PUT("/:id", redemptionHandler.UpdateRedeemable)
			}
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	}
}
