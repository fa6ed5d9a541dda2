package main

import (
	"context"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/cache"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/handlers"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/storage"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/utils"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue services.TaskQueue
	worker    *services.Worker
	reindexer *services.ReindexScheduler

	authHandler       *handlers.AuthHandler
	userHandler       *handlers.UserHandler
	projectHandler    *handlers.ProjectHandler
	followHandler     *handlers.FollowHandler
	versionHandler    *handlers.VersionHandler
	collectionHandler *handlers.CollectionHandler
	teamHandler       *handlers.TeamHandler
	searchHandler     *handlers.SearchHandler
	moderationHandler *handlers.ModerationHandler
	systemLogHandler  *handlers.SystemLogHandler
	healthHandler     *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, collaborating
// stores, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(db)

	// Collaborating stores: cache, file storage, search index. Each falls
	// back to an in-process implementation when its backend is not
	// configured.
	cacheClient := cache.New(&cfg.Redis)
	fileStorage, err := storage.New(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize file storage: %v", err)
	}
	index := search.NewIndex(&cfg.Search)

	// Task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	syncService := services.NewSearchSyncService(db, index, taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(syncService.Process)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(syncService.Process)
			worker.Start()
		}
	}

	// Nightly full reindex keeps the search projection honest.
	reindexer := services.NewReindexScheduler(syncService)
	reindexer.Start()

	// Domain services
	projectService := services.NewProjectService(db, index, cacheClient, fileStorage, syncService)
	followService := services.NewFollowService(db, syncService)
	moderationService := services.NewModerationService(db, syncService)
	threadService := services.NewThreadService(db)
	notificationService := services.NewNotificationService(db)
	memberService := services.NewMemberService(db)
	versionService := services.NewVersionService(db, fileStorage, syncService, projectService)
	collectionService := services.NewCollectionService(db, followService, projectService)
	carouselService := services.NewCarouselService(db, cacheClient, index, projectService)
	authService := services.NewAuthService(db, &cfg.JWT)

	if err := seedAdmin(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed admin user")
	}

	return &appServices{
		taskQueue: taskQueue,
		worker:    worker,
		reindexer: reindexer,

		authHandler:       handlers.NewAuthHandler(db, &cfg.JWT),
		userHandler:       handlers.NewUserHandler(authService, projectService),
		projectHandler:    handlers.NewProjectHandler(projectService, moderationService, threadService),
		followHandler:     handlers.NewFollowHandler(followService),
		versionHandler:    handlers.NewVersionHandler(versionService, projectService),
		collectionHandler: handlers.NewCollectionHandler(collectionService),
		teamHandler:       handlers.NewTeamHandler(memberService, notificationService),
		searchHandler:     handlers.NewSearchHandler(index, carouselService),
		moderationHandler: handlers.NewModerationHandler(moderationService),
		systemLogHandler:  handlers.NewSystemLogHandler(db),
		healthHandler:     handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.reindexer.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
