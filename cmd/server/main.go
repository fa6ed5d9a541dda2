package main

import (
	"os"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	level := "info"
	if cfg.Server.Mode == "debug" {
		level = "debug"
	}
	logger.Init(level)

	svc := bootstrap(cfg)
	defer svc.shutdown()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Create router
	r := gin.New()
	registerRoutes(r, svc)

	// Local storage serves its directory straight from the app.
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		r.Static("/files", cfg.Storage.LocalPath)
	}

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
