package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService    *services.AuthService
	projectService *services.ProjectService
}

func NewUserHandler(auth *services.AuthService, projects *services.ProjectService) *UserHandler {
	return &UserHandler{authService: auth, projectService: projects}
}

// Get returns a public profile by username
// GET /api/user/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.authService.GetUserByName(c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
		"bio":      user.Bio,
	})
}

// Projects returns a user's projects the viewer can see
// GET /api/user/:username/projects
func (h *UserHandler) Projects(c *gin.Context) {
	user, err := h.authService.GetUserByName(c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	all, err := h.projectService.ListByUser(user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	viewerID := middleware.GetUserID(c)
	viewerRole := middleware.GetRole(c)
	if viewerID == user.ID {
		response.Success(c, all)
		return
	}
	visible := make([]models.Project, 0, len(all))
	for i := range all {
		if services.IsAccessible(&all[i], viewerID, viewerRole) {
			visible = append(visible, all[i])
		}
	}

	response.Success(c, visible)
}
