// Package router wires the Gin engine with routes and middlewares.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/server/handlers"
	"github.com/mamadbah2/coopkeeper/internal/server/middleware"
)

// Handlers groups every HTTP adapter the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Production    *handlers.ProductionHandler
	Inventory     *handlers.InventoryHandler
	Flock         *handlers.FlockHandler
	Health        *handlers.HealthHandler
	Feed          *handlers.FeedHandler
	Expense       *handlers.ExpenseHandler
	Revenue       *handlers.RevenueHandler
	Dashboard     *handlers.DashboardHandler
	Notifications *handlers.NotificationHandler
}

// New wires the Gin engine with the full API surface. Everything under
// /api except the auth endpoints requires a valid bearer token; the admin
// dashboard additionally requires the admin role.
func New(h Handlers, tokens middleware.TokenVerifier, users middleware.UserLoader, production bool, logger *zap.Logger) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Auth.Signup)
	authGroup.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(tokens, users, logger))

	protected.GET("/auth/me", h.Auth.Me)
	protected.PUT("/auth/profile", h.Auth.UpdateProfile)

	productionGroup := protected.Group("/egg-production")
	productionGroup.POST("", h.Production.Record)
	productionGroup.GET("", h.Production.List)
	productionGroup.GET("/export", h.Production.Export)
	productionGroup.DELETE("/:id", h.Production.Delete)

	inventoryGroup := protected.Group("/egg-inventory")
	inventoryGroup.GET("", h.Inventory.Current)
	inventoryGroup.GET("/history", h.Inventory.History)
	inventoryGroup.POST("/sale", h.Inventory.RecordSale)

	flockGroup := protected.Group("/flock")
	flockGroup.POST("", h.Flock.Create)
	flockGroup.GET("", h.Flock.List)
	flockGroup.GET("/export", h.Flock.Export)
	flockGroup.PUT("/:id", h.Flock.Update)
	flockGroup.DELETE("/:id", h.Flock.Delete)

	vaccinationGroup := protected.Group("/vaccinations")
	vaccinationGroup.POST("", h.Health.CreateVaccination)
	vaccinationGroup.GET("/flock/:flockId", h.Health.VaccinationsByFlock)
	vaccinationGroup.DELETE("/:id", h.Health.DeleteVaccination)

	mortalityGroup := protected.Group("/mortality")
	mortalityGroup.POST("", h.Health.CreateMortality)
	mortalityGroup.GET("/flock/:flockId", h.Health.MortalitiesByFlock)
	mortalityGroup.GET("/export", h.Health.ExportMortalities)

	feedGroup := protected.Group("/feeds")
	feedGroup.POST("", h.Feed.Create)
	feedGroup.GET("", h.Feed.List)
	feedGroup.GET("/export", h.Feed.Export)
	feedGroup.POST("/:id/usage", h.Feed.RecordUsage)
	feedGroup.PUT("/:id", h.Feed.Update)
	feedGroup.DELETE("/:id", h.Feed.Delete)

	expenseGroup := protected.Group("/expenses")
	expenseGroup.POST("", h.Expense.Create)
	expenseGroup.GET("", h.Expense.List)
	expenseGroup.GET("/advanced", h.Expense.Advanced)
	expenseGroup.GET("/average", h.Expense.Average)
	expenseGroup.GET("/export", h.Expense.Export)
	expenseGroup.GET("/total/:type", h.Expense.TotalByType)
	expenseGroup.PUT("/:id", h.Expense.Update)
	expenseGroup.DELETE("/:id", h.Expense.Delete)

	revenueGroup := protected.Group("/revenues")
	revenueGroup.POST("", h.Revenue.Create)
	revenueGroup.GET("", h.Revenue.List)
	revenueGroup.GET("/advanced", h.Revenue.Advanced)
	revenueGroup.GET("/average", h.Revenue.Average)
	revenueGroup.GET("/export", h.Revenue.Export)
	revenueGroup.GET("/total/:source", h.Revenue.TotalBySource)
	revenueGroup.PUT("/:id", h.Revenue.Update)
	revenueGroup.DELETE("/:id", h.Revenue.Delete)

	protected.GET("/user-dashboard", h.Dashboard.User)
	protected.GET("/admin-dashboard", middleware.RequireRole(models.RoleAdmin), h.Dashboard.Admin)

	notificationGroup := protected.Group("/notifications")
	notificationGroup.GET("", h.Notifications.List)
	notificationGroup.PATCH("/:id/read", h.Notifications.MarkRead)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
