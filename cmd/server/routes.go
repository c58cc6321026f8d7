package main

import (
	"github.com/feedbackforge/backend/internal/middleware"
	"github.com/feedbackforge/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public ingestion routes
	ingestLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "feedbackforge"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Ingestion routes (public, rate limited). The chatbot frontend
		// records turns and feedback without an operator login.
		ingest := api.Group("", ingestLimiter.Middleware())
		{
			ingest.POST("/interactions", svc.interactionHandler.Create)
			ingest.POST("/interactions/:id/feedback", svc.interactionHandler.AttachFeedback)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)

			// Interactions
			protected.GET("/interactions", svc.interactionHandler.List)
			protected.GET("/interactions/:id", svc.interactionHandler.Get)
			protected.POST("/interactions/:id/approve", svc.interactionHandler.Approve)
			protected.DELETE("/interactions/:id", svc.interactionHandler.Delete)

			// Dashboard
			protected.GET("/dashboard/stats", svc.dashboardHandler.GetStats)
			protected.GET("/dashboard/snapshots", svc.dashboardHandler.ListSnapshots)
			protected.GET("/categories/stats", svc.dashboardHandler.GetCategoryStats)

			// Improvement pipeline
			protected.POST("/improvement/run", svc.improvementHandler.Run)
			protected.GET("/improvement/status", svc.improvementHandler.Status)
			protected.GET("/improvement/runs", svc.improvementHandler.ListRuns)
			protected.POST("/export", svc.improvementHandler.Export)
		}
	}
}
