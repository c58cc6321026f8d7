package main

import (
	"github.com/feedbackforge/backend/internal/config"
	"github.com/feedbackforge/backend/internal/handlers"
	"github.com/feedbackforge/backend/internal/models"
	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/internal/utils"
	"github.com/feedbackforge/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	orchestrator       *services.Orchestrator
	authHandler        *handlers.AuthHandler
	interactionHandler *handlers.InteractionHandler
	dashboardHandler   *handlers.DashboardHandler
	improvementHandler *handlers.ImprovementHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(db, &cfg.Auth)
	if err := authHandler.EnsureAdmin(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	defaultFormat, err := services.ParseFormat(cfg.Export.DefaultFormat)
	if err != nil {
		logger.Fatalf("Invalid default export format %q: %v", cfg.Export.DefaultFormat, err)
	}

	classifier := services.Classifier{QualityThreshold: cfg.Pipeline.QualityThreshold}
	aggOpts := services.AggregatorOptions{
		MinSampleSize:   cfg.Pipeline.MinSampleSize,
		RatingThreshold: cfg.Pipeline.RatingThreshold,
	}

	store := services.NewRecordStore(db)
	exporter := services.NewExporter(cfg.Export.Dir, cfg.Export.SystemPrompt, classifier)
	orchestrator := services.NewOrchestrator(store, exporter, classifier, aggOpts, defaultFormat, db)

	// Start scheduled improvement cycles when configured
	if err := orchestrator.StartScheduler(cfg.Pipeline.Schedule, cfg.Pipeline.WindowDays); err != nil {
		logger.Fatalf("Failed to start improvement scheduler: %v", err)
	}

	return &appServices{
		orchestrator:       orchestrator,
		authHandler:        authHandler,
		interactionHandler: handlers.NewInteractionHandler(db),
		dashboardHandler:   handlers.NewDashboardHandler(db, aggOpts),
		improvementHandler: handlers.NewImprovementHandler(orchestrator, store, exporter, cfg.Pipeline.WindowDays),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.orchestrator.StopScheduler()
	logger.Info().Msg("All schedulers stopped")
}
