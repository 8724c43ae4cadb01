package main

import (
	"github.com/smartvinesa/smartview/internal/config"
	"github.com/smartvinesa/smartview/internal/handlers"
	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/internal/services"
	"github.com/smartvinesa/smartview/internal/utils"
	"github.com/smartvinesa/smartview/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	display     *services.DisplayService
	taskQueue   services.TaskQueue
	worker      *services.Worker
	authHandler *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Audit logging writes to the system_logs table
	services.InitSystemLogger(models.GetDB())
	services.StartLogCleanupScheduler(models.GetDB())

	display := services.NewDisplayService(models.GetDB())

	// Task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(display.ProcessRefreshTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(display.ProcessRefreshTask)
			worker.Start()
		}
	}

	// Rotation, cache sweeper, scheduled refresh, warmup
	display.Start()

	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		display:     display,
		taskQueue:   taskQueue,
		worker:      worker,
		authHandler: authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.display.Stop()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
