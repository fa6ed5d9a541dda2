package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
}

func NewCollectionHandler(collections *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collections}
}

// Create makes a new collection
// POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req services.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	collection, err := h.collectionService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, collection)
}

// ListMine lists the caller's collections
// GET /api/collections
func (h *CollectionHandler) ListMine(c *gin.Context) {
	collections, err := h.collectionService.ListByUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, collections)
}

// Projects resolves a collection (or the "follows" sentinel) to projects
// GET /api/collection/:id/projects
func (h *CollectionHandler) Projects(c *gin.Context) {
	projects, err := h.collectionService.Projects(c.Param("id"), middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// AddProject appends a project to an owned collection
// POST /api/collection/:id/project/:projectId
func (h *CollectionHandler) AddProject(c *gin.Context) {
	collectionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	err := h.collectionService.AddProject(collectionID, projectID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Project added to collection")
}

// RemoveProject drops a project from an owned collection
// DELETE /api/collection/:id/project/:projectId
func (h *CollectionHandler) RemoveProject(c *gin.Context) {
	collectionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	err := h.collectionService.RemoveProject(collectionID, projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Project removed from collection")
}

// Delete removes an owned collection
// DELETE /api/collection/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	collectionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.collectionService.Delete(collectionID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Collection deleted")
}
