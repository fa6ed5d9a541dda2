package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	followService *services.FollowService
}

func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: follows}
}

// Follow adds the project to the caller's follow list
// POST /api/project/:id/follow
func (h *FollowHandler) Follow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.followService.AddFollows(c.Request.Context(), []uint{id}, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Project followed")
}

// Unfollow removes the project from the caller's follow list
// DELETE /api/project/:id/follow
func (h *FollowHandler) Unfollow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.followService.RemoveFollows(c.Request.Context(), []uint{id}, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Project unfollowed")
}

type followBatchRequest struct {
	ProjectIDs []uint `json:"project_ids" binding:"required,min=1"`
}

// FollowBatch follows several projects in one call
// POST /api/projects/follow
func (h *FollowHandler) FollowBatch(c *gin.Context) {
	var req followBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.followService.AddFollows(c.Request.Context(), req.ProjectIDs, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Projects followed")
}

// UnfollowBatch unfollows several projects in one call
// DELETE /api/projects/follow
func (h *FollowHandler) UnfollowBatch(c *gin.Context) {
	var req followBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.followService.RemoveFollows(c.Request.Context(), req.ProjectIDs, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Projects unfollowed")
}
