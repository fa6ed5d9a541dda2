package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/cache"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/permission"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/storage"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ProjectService owns project CRUD and the multi-store deletion cascade.
type ProjectService struct {
	db      *gorm.DB
	index   search.ProjectIndex
	cache   cache.Cache
	storage storage.FileStorage
	sync    *SearchSyncService
}

func NewProjectService(db *gorm.DB, idx search.ProjectIndex, c cache.Cache, fs storage.FileStorage, sync *SearchSyncService) *ProjectService {
	return &ProjectService{db: db, index: idx, cache: c, storage: fs, sync: sync}
}

type CreateProjectRequest struct {
	Slug       string `json:"slug" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Summary    string `json:"summary"`
	Type       string `json:"type" binding:"omitempty,oneof=mod modpack resourcepack shader"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=listed unlisted private"`
	OrgID      *uint  `json:"org_id"`
}

type UpdateProjectRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	LicenseID   string `json:"license_id"`
	LicenseName string `json:"license_name"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=listed unlisted private archived"`
}

// UserProjectsTTL bounds staleness of the per-user "my projects" list when
// an invalidation is missed.
const UserProjectsTTL = 300 * time.Second

// userProjectsCacheKey is the per-user "my projects" list cache entry.
func userProjectsCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d:projects", userID)
}

// Create inserts the project with its owning team and thread in one
// transaction. New projects start draft and private.
func (s *ProjectService) Create(req *CreateProjectRequest, userID uint) (*models.Project, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))

	var count int64
	s.db.Model(&models.Project{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, response.NewInvalidRequest("A project with that slug already exists")
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	projectType := req.Type
	if projectType == "" {
		projectType = "mod"
	}

	var project models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team := models.Team{OrganizationID: req.OrgID}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		owner := models.TeamMember{
			TeamID:      team.ID,
			UserID:      userID,
			Role:        "Owner",
			Permissions: permission.All,
			IsOwner:     true,
			Accepted:    true,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		project = models.Project{
			Slug:       slug,
			Name:       req.Name,
			Summary:    req.Summary,
			Type:       projectType,
			Status:     models.StatusDraft,
			Visibility: visibility,
			TeamID:     team.ID,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		thread := models.Thread{ProjectID: project.ID}
		return tx.Create(&thread).Error
	})
	if err != nil {
		return nil, err
	}

	// New projects are never indexable, no resync needed.
	s.cache.Delete(context.Background(), userProjectsCacheKey(userID))
	return &project, nil
}

// getWithTeam loads a project with its full membership graph.
func (s *ProjectService) getWithTeam(projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Team.Members").Preload("Team.Organization.Team.Members").
		Preload("Gallery").
		First(&project, projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// IsAccessible reports whether the viewer may see the project: indexable, or
// a team/org member, or a moderation-tier role.
func IsAccessible(p *models.Project, viewerID uint, viewerRole string) bool {
	if p.IsIndexable() {
		return true
	}
	// Unlisted approved projects are reachable by direct link.
	if p.Status == models.StatusApproved && p.Visibility == models.VisibilityUnlisted {
		return true
	}
	if viewerRole == models.RoleModerator || viewerRole == models.RoleAdmin {
		return true
	}
	if viewerID != 0 && p.Team != nil && IsMember(p.Team, viewerID) {
		return true
	}
	return false
}

// GetAccessible returns the project or NotFound. Missing and inaccessible
// are deliberately the same error so private projects aren't discoverable.
func (s *ProjectService) GetAccessible(projectID, viewerID uint, viewerRole string) (*models.Project, error) {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}
	if !IsAccessible(project, viewerID, viewerRole) {
		return nil, response.NewNotFound("Project not found")
	}
	return project, nil
}

// GetBySlug resolves a slug with the same accessibility rules.
func (s *ProjectService) GetBySlug(slug string, viewerID uint, viewerRole string) (*models.Project, error) {
	var project models.Project
	err := s.db.Where("slug = ?", slug).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}
	return s.GetAccessible(project.ID, viewerID, viewerRole)
}

// GetMany hydrates ids into projects the viewer can access. The standard
// listing fetch: callers must tolerate fewer results than ids requested.
func (s *ProjectService) GetMany(ids []uint, viewerID uint, viewerRole string) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var projects []models.Project
	err := s.db.Preload("Team.Members").Preload("Team.Organization.Team.Members").
		Where("id IN ?", ids).Find(&projects).Error
	if err != nil {
		return nil, err
	}

	visible := make([]models.Project, 0, len(projects))
	for i := range projects {
		if IsAccessible(&projects[i], viewerID, viewerRole) {
			visible = append(visible, projects[i])
		}
	}
	return visible, nil
}

// ListByUser returns projects whose teams the user belongs to. The list is
// served cache-aside; project create and delete purge the entry.
func (s *ProjectService) ListByUser(userID uint) ([]models.Project, error) {
	ctx := context.Background()
	key := userProjectsCacheKey(userID)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var projects []models.Project
		if err := json.Unmarshal([]byte(cached), &projects); err == nil {
			return projects, nil
		}
		logger.Warnf("[Project] Discarding unreadable cache entry %s", key)
	}

	var teamIDs []uint
	err := s.db.Model(&models.TeamMember{}).
		Where("user_id = ? AND accepted = ?", userID, true).
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		return nil, err
	}
	if len(teamIDs) == 0 {
		return nil, nil
	}

	var projects []models.Project
	err = s.db.Where("team_id IN ?", teamIDs).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(projects); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), UserProjectsTTL); err != nil {
			logger.Warnf("[Project] Failed to cache %s: %v", key, err)
		}
	}
	return projects, nil
}

// Update edits project details. Requires EditDetails.
func (s *ProjectService) Update(projectID, userID uint, userRole string, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}

	member := GetCurrentMember(project.Team, userID)
	var perms int64
	isOwner := false
	if member != nil {
		perms = member.Permissions
		isOwner = member.IsOwner
	}
	if !permission.HasAccess(permission.EditDetails, perms, isOwner, userRole) {
		return nil, response.NewUnauthorized("You don't have permission to edit this project")
	}

	updates := make(map[string]interface{})
	if req.Slug != "" {
		slug := strings.ToLower(strings.TrimSpace(req.Slug))
		var count int64
		s.db.Model(&models.Project{}).Where("slug = ? AND id <> ?", slug, projectID).Count(&count)
		if count > 0 {
			return nil, response.NewInvalidRequest("A project with that slug already exists")
		}
		updates["slug"] = slug
	}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Summary != "" {
		updates["summary"] = req.Summary
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.LicenseID != "" {
		updates["license_id"] = req.LicenseID
	}
	if req.LicenseName != "" {
		updates["license_name"] = req.LicenseName
	}
	if req.Visibility != "" {
		updates["visibility"] = req.Visibility
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}

	// Visibility or detail changes must reach the search projection.
	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Project] Failed to mark project %d for resync: %v", project.ID, err)
	}
	return project, nil
}

// UpdateIcon stores a new icon blob and swaps the file record.
func (s *ProjectService) UpdateIcon(ctx context.Context, projectID, userID uint, userRole string, filename, contentType string, body io.Reader, size int64) (*models.File, error) {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}

	member := GetCurrentMember(project.Team, userID)
	var perms int64
	isOwner := false
	if member != nil {
		perms = member.Permissions
		isOwner = member.IsOwner
	}
	if !permission.HasAccess(permission.EditDetails, perms, isOwner, userRole) {
		return nil, response.NewUnauthorized("You don't have permission to edit this project")
	}

	key := storage.IconKey(projectID, filename)
	url, err := s.storage.Save(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}

	file := models.File{Key: key, Name: filename, Size: size, ContentType: contentType, URL: url}
	if err := s.db.Create(&file).Error; err != nil {
		return nil, err
	}

	// Replacing the row before deleting the old blob: a dangling blob is
	// cheaper than a broken icon.
	oldIconID := project.IconFileID
	if err := s.db.Model(project).Update("icon_file_id", file.ID).Error; err != nil {
		return nil, err
	}
	if oldIconID != nil {
		var old models.File
		if err := s.db.First(&old, *oldIconID).Error; err == nil {
			if err := s.storage.Delete(ctx, old.Key); err != nil {
				logger.Warnf("[Project] Failed to delete old icon %s: %v", old.Key, err)
			}
			s.db.Delete(&old)
		}
	}

	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Project] Failed to mark project %d for resync: %v", project.ID, err)
	}
	return &file, nil
}

func (s *ProjectService) AddGalleryImage(ctx context.Context, projectID, userID uint, userRole string, title, filename, contentType string, body io.Reader, size int64, featured bool) (*models.GalleryImage, error) {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}

	member := GetCurrentMember(project.Team, userID)
	var perms int64
	isOwner := false
	if member != nil {
		perms = member.Permissions
		isOwner = member.IsOwner
	}
	if !permission.HasAccess(permission.EditDetails, perms, isOwner, userRole) {
		return nil, response.NewUnauthorized("You don't have permission to edit this project")
	}

	key := storage.GalleryKey(projectID, filename)
	url, err := s.storage.Save(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}

	file := models.File{Key: key, Name: filename, Size: size, ContentType: contentType, URL: url}
	if err := s.db.Create(&file).Error; err != nil {
		return nil, err
	}

	var ordering int64
	s.db.Model(&models.GalleryImage{}).Where("project_id = ?", projectID).Count(&ordering)

	if featured {
		s.db.Model(&models.GalleryImage{}).Where("project_id = ?", projectID).Update("featured", false)
	}

	image := models.GalleryImage{
		ProjectID: projectID,
		FileID:    file.ID,
		File:      &file,
		Title:     title,
		Featured:  featured,
		Ordering:  int(ordering),
	}
	if err := s.db.Create(&image).Error; err != nil {
		return nil, err
	}

	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Project] Failed to mark project %d for resync: %v", project.ID, err)
	}
	return &image, nil
}

func (s *ProjectService) RemoveGalleryImage(ctx context.Context, projectID, userID uint, userRole string, imageID uint) error {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Project not found")
		}
		return err
	}

	member := GetCurrentMember(project.Team, userID)
	var perms int64
	isOwner := false
	if member != nil {
		perms = member.Permissions
		isOwner = member.IsOwner
	}
	if !permission.HasAccess(permission.EditDetails, perms, isOwner, userRole) {
		return response.NewUnauthorized("You don't have permission to edit this project")
	}

	var image models.GalleryImage
	if err := s.db.Where("id = ? AND project_id = ?", imageID, projectID).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Gallery image not found")
		}
		return err
	}

	var file models.File
	if err := s.db.First(&file, image.FileID).Error; err == nil {
		if err := s.storage.Delete(ctx, file.Key); err != nil {
			logger.Warnf("[Project] Failed to delete gallery file %s: %v", file.Key, err)
		}
	}

	if err := s.db.Delete(&image).Error; err != nil {
		return err
	}
	s.db.Delete(&models.File{}, image.FileID)

	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Project] Failed to mark project %d for resync: %v", project.ID, err)
	}
	return nil
}

// Delete irreversibly removes a project and reconciles every derived
// surface. The bulk of the cascade runs as a concurrent batch: all
// operations are dispatched before any is awaited, and a failure in one does
// not stop the others — partial deletion is an accepted weakness, there is
// no compensating rollback.
func (s *ProjectService) Delete(ctx context.Context, userID uint, userRole string, projectID uint) error {
	project, err := s.getWithTeam(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Project not found")
		}
		return err
	}

	member := GetCurrentMember(project.Team, userID)
	var perms int64
	isOwner := false
	if member != nil {
		perms = member.Permissions
		isOwner = member.IsOwner
	}
	if !permission.HasAccess(permission.DeleteProject, perms, isOwner, userRole) {
		return response.NewUnauthorized("You don't have permission to delete this project")
	}

	// Gather everything referenced before destroying rows.
	var versions []models.Version
	if err := s.db.Where("project_id = ?", projectID).Find(&versions).Error; err != nil {
		return err
	}
	versionIDs := make([]uint, 0, len(versions))
	for _, v := range versions {
		versionIDs = append(versionIDs, v.ID)
	}

	var fileIDs []uint
	if len(versionIDs) > 0 {
		if err := s.db.Model(&models.VersionFile{}).Where("version_id IN ?", versionIDs).
			Pluck("file_id", &fileIDs).Error; err != nil {
			return err
		}
	}
	var galleryFileIDs []uint
	s.db.Model(&models.GalleryImage{}).Where("project_id = ?", projectID).Pluck("file_id", &galleryFileIDs)
	fileIDs = append(fileIDs, galleryFileIDs...)
	if project.IconFileID != nil {
		fileIDs = append(fileIDs, *project.IconFileID)
	}

	memberUserIDs := make([]uint, 0, len(project.Team.Members))
	for _, m := range project.Team.Members {
		memberUserIDs = append(memberUserIDs, m.UserID)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if len(versionIDs) == 0 {
			return nil
		}
		if err := s.db.Where("version_id IN ?", versionIDs).Delete(&models.VersionFile{}).Error; err != nil {
			return err
		}
		if err := s.db.Where("version_id IN ?", versionIDs).Delete(&models.VersionDependency{}).Error; err != nil {
			return err
		}
		return s.db.Where("project_id = ?", projectID).Delete(&models.Version{}).Error
	})
	g.Go(func() error {
		if err := s.db.Where("project_id = ?", projectID).Delete(&models.GalleryImage{}).Error; err != nil {
			return err
		}
		if len(fileIDs) == 0 {
			return nil
		}
		return s.db.Where("id IN ?", fileIDs).Delete(&models.File{}).Error
	})
	g.Go(func() error {
		return s.db.Delete(&models.Project{}, projectID).Error
	})
	g.Go(func() error {
		return s.storage.DeletePrefix(gctx, storage.ProjectPrefix(projectID))
	})
	g.Go(func() error {
		keys := make([]string, 0, len(memberUserIDs))
		for _, uid := range memberUserIDs {
			keys = append(keys, userProjectsCacheKey(uid))
		}
		return s.cache.Delete(gctx, keys...)
	})
	g.Go(func() error {
		return s.db.Where("project_id = ?", projectID).Delete(&models.ProjectFollow{}).Error
	})
	g.Go(func() error {
		return s.db.Where("project_id = ?", projectID).Delete(&models.CollectionProject{}).Error
	})
	g.Go(func() error {
		// A dangling indexed document for a deleted project would resurface
		// it in search, so the tombstone rides in the same batch.
		return s.index.Remove([]uint{projectID})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Sequential tail.
	var thread models.Thread
	if err := s.db.Where("project_id = ?", projectID).First(&thread).Error; err == nil {
		s.db.Where("thread_id = ?", thread.ID).Delete(&models.ThreadMessage{})
		s.db.Delete(&thread)
	}

	// Best-effort: a leftover stats row is harmless.
	if err := s.db.Where("project_id = ?", projectID).Delete(&models.ProjectDailyStat{}).Error; err != nil {
		logger.Warnf("[Project] Failed to delete daily stats for project %d: %v", projectID, err)
	}

	if err := s.db.Where("team_id = ?", project.TeamID).Delete(&models.TeamMember{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Team{}, project.TeamID).Error; err != nil {
		return err
	}

	logger.Infof("[Project] Deleted project %d (%s), %d versions, %d files",
		projectID, project.Slug, len(versionIDs), len(fileIDs))
	LogInfo("project", "delete", fmt.Sprintf("project %d deleted", projectID), &userID, "", "", nil)
	return nil
}
