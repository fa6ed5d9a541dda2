package handlers

import (
	"encoding/json"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type VersionHandler struct {
	versionService *services.VersionService
	projectService *services.ProjectService
}

func NewVersionHandler(versions *services.VersionService, projects *services.ProjectService) *VersionHandler {
	return &VersionHandler{versionService: versions, projectService: projects}
}

// Create uploads a new version with its files
// POST /api/project/:id/version  (multipart: "data" JSON part + "files")
func (h *VersionHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateVersionRequest
	data := c.PostForm("data")
	if data == "" {
		response.BadRequest(c, "version metadata is required")
		return
	}
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		response.BadRequest(c, "invalid version metadata: "+err.Error())
		return
	}
	if req.VersionNumber == "" {
		response.BadRequest(c, "version_number is required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "multipart form required")
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		response.BadRequest(c, "at least one file is required")
		return
	}

	primaryName := c.PostForm("primary")
	uploads := make([]services.VersionUpload, 0, len(fileHeaders))
	opened := make([]interface{ Close() error }, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			response.ServerError(c, "failed to read upload")
			return
		}
		opened = append(opened, src)
		uploads = append(uploads, services.VersionUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        src,
			Primary:     fh.Filename == primaryName,
		})
	}

	version, err := h.versionService.Create(
		c.Request.Context(), projectID,
		middleware.GetUserID(c), middleware.GetRole(c),
		&req, uploads,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, version)
}

// List returns a project's versions
// GET /api/project/:id/versions
func (h *VersionHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.projectService.GetAccessible(projectID, middleware.GetUserID(c), middleware.GetRole(c)); err != nil {
		response.Error(c, err)
		return
	}

	versions, err := h.versionService.ListByProject(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, versions)
}

// Get returns one version
// GET /api/project/:id/version/:versionId
func (h *VersionHandler) Get(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	versionID, ok := parseID(c, "versionId")
	if !ok {
		return
	}

	if _, err := h.projectService.GetAccessible(projectID, middleware.GetUserID(c), middleware.GetRole(c)); err != nil {
		response.Error(c, err)
		return
	}

	version, err := h.versionService.Get(projectID, versionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, version)
}

// Delete removes a version and its files
// DELETE /api/project/:id/version/:versionId
func (h *VersionHandler) Delete(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	versionID, ok := parseID(c, "versionId")
	if !ok {
		return
	}

	err := h.versionService.Delete(c.Request.Context(), projectID, versionID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Version deleted")
}

// Download redirects to the version's primary file and bumps counters
// GET /api/project/:id/version/:versionId/download
func (h *VersionHandler) Download(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	versionID, ok := parseID(c, "versionId")
	if !ok {
		return
	}

	if _, err := h.projectService.GetAccessible(projectID, middleware.GetUserID(c), middleware.GetRole(c)); err != nil {
		response.Error(c, err)
		return
	}

	version, err := h.versionService.Get(projectID, versionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var url string
	for _, vf := range version.Files {
		if vf.Primary && vf.File != nil {
			url = vf.File.URL
			break
		}
	}
	if url == "" {
		response.NotFound(c, "Version has no primary file")
		return
	}

	// Counter loss is tolerable; the download proceeds either way.
	if err := h.versionService.RecordDownload(projectID, versionID); err != nil {
		logger.Warnf("[Version] Failed to record download of version %d: %v", versionID, err)
	}

	c.Redirect(302, url)
}
