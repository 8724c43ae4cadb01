package main

import (
	"github.com/gin-gonic/gin"
	"github.com/smartvinesa/smartview/internal/handlers"
	"github.com/smartvinesa/smartview/internal/middleware"
	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the unauthenticated display routes
	displayLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler(models.GetDB())
	r.GET("/health", healthHandler.Check)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Public display routes (kiosk polling, rate limited)
		displayHandler := handlers.NewDisplayHandler(models.GetDB(), svc.display)
		display := api.Group("/display", displayLimiter.Middleware())
		{
			display.GET("/dashboard", displayHandler.Dashboard)
			display.GET("/state", displayHandler.State)
			display.GET("/pages/:page", displayHandler.Page)
			display.POST("/page", displayHandler.SetPage)
			display.GET("/metrics/:id/chart", displayHandler.Chart)
		}

		// Protected routes (any authenticated user)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			dashboardHandler := handlers.NewDashboardHandler(models.GetDB())
			protected.GET("/dashboard/summary", dashboardHandler.Summary)

			metricHandler := handlers.NewMetricHandler(models.GetDB(), svc.display)
			protected.GET("/metrics", metricHandler.List)
			protected.GET("/metrics/:id", metricHandler.GetByID)

			dataPointHandler := handlers.NewDataPointHandler(models.GetDB(), svc.display)
			protected.GET("/data-points", dataPointHandler.List)
		}

		// Admin only routes, with audit logging on writes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			metricHandler := handlers.NewMetricHandler(models.GetDB(), svc.display)
			admin.POST("/metrics", metricHandler.Create)
			admin.PUT("/metrics/:id", metricHandler.Update)
			admin.DELETE("/metrics/:id", metricHandler.Delete)

			dataPointHandler := handlers.NewDataPointHandler(models.GetDB(), svc.display)
			admin.POST("/data-points", dataPointHandler.Upsert)
			admin.PUT("/data-points/:id", dataPointHandler.Update)
			admin.DELETE("/data-points/:id", dataPointHandler.Delete)

			settingsHandler := handlers.NewSettingsHandler(models.GetDB(), svc.display)
			admin.GET("/settings", settingsHandler.List)
			admin.GET("/settings/resolved", settingsHandler.GetResolved)
			admin.PUT("/settings", settingsHandler.UpdateMany)
			admin.PUT("/settings/:key", settingsHandler.Update)

			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
		}
	}
}
