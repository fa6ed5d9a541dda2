package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderation *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderation}
}

// Queue lists projects awaiting review
// GET /api/moderation/queue
func (h *ModerationHandler) Queue(c *gin.Context) {
	projects, err := h.moderationService.Queue()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

func (h *ModerationHandler) decide(c *gin.Context, action string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.moderationService.Decide(id, middleware.GetUserID(c), middleware.GetRole(c), action)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Decision recorded")
}

// Approve publishes a project under review
// POST /api/moderation/project/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) {
	h.decide(c, services.ActionApprove)
}

// Reject declines a project under review
// POST /api/moderation/project/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) {
	h.decide(c, services.ActionReject)
}

// Withhold pulls an approved project from the index
// POST /api/moderation/project/:id/withhold
func (h *ModerationHandler) Withhold(c *gin.Context) {
	h.decide(c, services.ActionWithhold)
}
