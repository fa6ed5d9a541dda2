package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Moderation queue depth
	var pendingCount int64
	models.GetDB().Model(&models.Project{}).
		Where("status = ?", models.StatusProcessing).
		Count(&pendingCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "cosmic-mod-manager",
		"components": gin.H{
			"database":         dbStatus,
			"queue_mode":       queueMode,
			"pending_projects": pendingCount,
		},
	})
}
