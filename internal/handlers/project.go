package handlers

import (
	"strconv"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService    *services.ProjectService
	moderationService *services.ModerationService
	threadService     *services.ThreadService
}

func NewProjectHandler(projects *services.ProjectService, moderation *services.ModerationService, threads *services.ThreadService) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projects,
		moderationService: moderation,
		threadService:     threads,
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// Create creates a new project in draft state
// POST /api/project
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Get returns a project by id or slug, subject to accessibility
// GET /api/project/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	viewerID := middleware.GetUserID(c)
	viewerRole := middleware.GetRole(c)

	ref := c.Param("id")
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		project, err := h.projectService.GetAccessible(uint(id), viewerID, viewerRole)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, project)
		return
	}

	project, err := h.projectService.GetBySlug(ref, viewerID, viewerRole)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// ListMine returns the caller's projects
// GET /api/projects/mine
func (h *ProjectHandler) ListMine(c *gin.Context) {
	projects, err := h.projectService.ListByUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Update patches project details
// PATCH /api/project/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, middleware.GetUserID(c), middleware.GetRole(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// UploadIcon replaces the project icon
// PUT /api/project/:id/icon
func (h *ProjectHandler) UploadIcon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("icon")
	if err != nil {
		response.BadRequest(c, "icon file is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "failed to read upload")
		return
	}
	defer src.Close()

	file, err := h.projectService.UpdateIcon(
		c.Request.Context(), id,
		middleware.GetUserID(c), middleware.GetRole(c),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"),
		src, fileHeader.Size,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, file)
}

// Delete irreversibly removes a project and everything derived from it
// DELETE /api/project/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.projectService.Delete(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Project deleted")
}

// SubmitForReview queues the project for moderation
// POST /api/project/:id/submit-for-review
func (h *ProjectHandler) SubmitForReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	msg, err := h.moderationService.QueueForApproval(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, msg)
}

// Thread returns the project's moderation thread
// GET /api/project/:id/thread
func (h *ProjectHandler) Thread(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	viewerID := middleware.GetUserID(c)
	viewerRole := middleware.GetRole(c)
	if _, err := h.projectService.GetAccessible(id, viewerID, viewerRole); err != nil {
		response.Error(c, err)
		return
	}

	isModerator := viewerRole == "moderator" || viewerRole == "admin"
	messages, err := h.threadService.Messages(id, isModerator)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, messages)
}

type threadMessageRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// PostThreadMessage appends a text message to the project's thread
// POST /api/project/:id/thread
func (h *ProjectHandler) PostThreadMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req threadMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	viewerID := middleware.GetUserID(c)
	viewerRole := middleware.GetRole(c)
	if _, err := h.projectService.GetAccessible(id, viewerID, viewerRole); err != nil {
		response.Error(c, err)
		return
	}

	isModerator := viewerRole == "moderator" || viewerRole == "admin"
	if err := h.threadService.AddMessage(id, viewerID, req.Body, isModerator); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Message posted")
}

func (h *ProjectHandler) AddGalleryImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "failed to read upload")
		return
	}
	defer src.Close()

	image, err := h.projectService.AddGalleryImage(
		c.Request.Context(), id,
		middleware.GetUserID(c), middleware.GetRole(c),
		c.PostForm("title"),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"),
		src, fileHeader.Size,
		c.PostForm("featured") == "true",
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, image)
}

func (h *ProjectHandler) RemoveGalleryImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(c, "imageId")
	if !ok {
		return
	}

	if err := h.projectService.RemoveGalleryImage(
		c.Request.Context(), id,
		middleware.GetUserID(c), middleware.GetRole(c), imageID,
	); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Gallery image removed")
}
