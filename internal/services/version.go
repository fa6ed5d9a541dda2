package services

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/permission"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/storage"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

// VersionService manages project versions and their files
type VersionService struct {
	db       *gorm.DB
	storage  storage.FileStorage
	sync     *SearchSyncService
	projects *ProjectService
}

// NewVersionService creates a new version service instance
func NewVersionService(db *gorm.DB, fs storage.FileStorage, sync *SearchSyncService, projects *ProjectService) *VersionService {
	return &VersionService{db: db, storage: fs, sync: sync, projects: projects}
}

// VersionUpload is one file in a version create request.
type VersionUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Primary     bool
}

// CreateVersionRequest carries the metadata for a new version.
type CreateVersionRequest struct {
	Title          string `json:"title"`
	VersionNumber  string `json:"version_number" binding:"required"`
	Changelog      string `json:"changelog"`
	ReleaseChannel string `json:"release_channel"`
	GameVersions   string `json:"game_versions"`
	Loaders        string `json:"loaders"`

	Dependencies []VersionDependencyRequest `json:"dependencies"`
}

type VersionDependencyRequest struct {
	DependencyType  string `json:"dependency_type" binding:"required"`
	TargetProjectID uint   `json:"target_project_id" binding:"required"`
	TargetVersionID *uint  `json:"target_version_id"`
}

func (s *VersionService) authorize(projectID, userID uint, userRole string, required int64) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Team.Members").Preload("Team.Organization.Team.Members").
		First(&project, projectID).Error
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
	if !permission.HasAccess(required, perms, isOwner, userRole) {
		return nil, response.NewUnauthorized("You don't have permission to manage versions of this project")
	}
	return &project, nil
}

// Create uploads the version's files to storage, then commits the version,
// file and dependency rows in one transaction. Download counters start at
// zero and are never touched here.
func (s *VersionService) Create(ctx context.Context, projectID, userID uint, userRole string, req *CreateVersionRequest, uploads []VersionUpload) (*models.Version, error) {
	project, err := s.authorize(projectID, userID, userRole, permission.UploadVersion)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, response.NewInvalidRequest("A version needs at least one file")
	}

	var dup int64
	s.db.Model(&models.Version{}).
		Where("project_id = ? AND version_number = ?", projectID, req.VersionNumber).
		Count(&dup)
	if dup > 0 {
		return nil, response.NewInvalidRequest("A version with that number already exists")
	}

	channel := req.ReleaseChannel
	if channel == "" {
		channel = models.ChannelRelease
	}

	version := &models.Version{
		ProjectID:      project.ID,
		Title:          req.Title,
		VersionNumber:  req.VersionNumber,
		Changelog:      req.Changelog,
		ReleaseChannel: channel,
		GameVersions:   req.GameVersions,
		Loaders:        req.Loaders,
		AuthorID:       userID,
	}

	// Storage writes happen before the transaction: a failed upload leaves
	// no rows behind, while orphaned objects are reclaimed by the project
	// prefix on deletion.
	type stored struct {
		file    models.File
		primary bool
	}
	var files []stored
	for _, up := range uploads {
		hasher := sha1.New()
		body := io.TeeReader(up.Body, hasher)
		key := storage.VersionFileKey(project.ID, up.Filename)
		url, err := s.storage.Save(ctx, key, body, up.Size, up.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store version file: %w", err)
		}
		files = append(files, stored{
			file: models.File{
				Key:         key,
				Name:        up.Filename,
				Size:        up.Size,
				SHA1:        fmt.Sprintf("%x", hasher.Sum(nil)),
				ContentType: up.ContentType,
				URL:         url,
			},
			primary: up.Primary,
		})
	}
	// Exactly one primary file. Default to the first when none is flagged.
	hasPrimary := false
	for _, f := range files {
		if f.primary {
			hasPrimary = true
			break
		}
	}
	if !hasPrimary {
		files[0].primary = true
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		for i := range files {
			if err := tx.Create(&files[i].file).Error; err != nil {
				return err
			}
			vf := models.VersionFile{
				VersionID: version.ID,
				FileID:    files[i].file.ID,
				Primary:   files[i].primary,
			}
			if err := tx.Create(&vf).Error; err != nil {
				return err
			}
		}
		for _, d := range req.Dependencies {
			dep := models.VersionDependency{
				VersionID:       version.ID,
				DependencyType:  d.DependencyType,
				TargetProjectID: d.TargetProjectID,
				TargetVersionID: d.TargetVersionID,
			}
			if err := tx.Create(&dep).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	// New game versions and loaders must reach the search projection.
	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Version] Failed to queue search resync for project %d: %v", project.ID, err)
	}

	LogInfo("version", "create", fmt.Sprintf("version %s of project %d created", version.VersionNumber, project.ID), &userID, "", "", nil)
	return version, nil
}

// ListByProject returns a project's versions, newest first, with files and
// dependencies preloaded. Access control is the caller's concern.
func (s *VersionService) ListByProject(projectID uint) ([]models.Version, error) {
	var versions []models.Version
	err := s.db.Preload("Files.File").Preload("Dependencies").
		Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load versions: %w", err)
	}
	return versions, nil
}

// Get returns a single version with files and dependencies.
func (s *VersionService) Get(projectID, versionID uint) (*models.Version, error) {
	var version models.Version
	err := s.db.Preload("Files.File").Preload("Dependencies").
		Where("project_id = ?", projectID).
		First(&version, versionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Version not found")
		}
		return nil, err
	}
	return &version, nil
}

// Delete removes a version: storage objects, file rows, dependency rows,
// the version row, then a search resync so the projection drops the
// version's game versions and loaders.
func (s *VersionService) Delete(ctx context.Context, projectID, versionID, userID uint, userRole string) error {
	project, err := s.authorize(projectID, userID, userRole, permission.DeleteVersion)
	if err != nil {
		return err
	}

	version, err := s.Get(projectID, versionID)
	if err != nil {
		return err
	}

	for _, vf := range version.Files {
		if vf.File == nil {
			continue
		}
		if err := s.storage.Delete(ctx, vf.File.Key); err != nil {
			logger.Warnf("[Version] Failed to delete object %s: %v", vf.File.Key, err)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		fileIDs := make([]uint, 0, len(version.Files))
		for _, vf := range version.Files {
			fileIDs = append(fileIDs, vf.FileID)
		}
		if err := tx.Where("version_id = ?", version.ID).Delete(&models.VersionFile{}).Error; err != nil {
			return err
		}
		if len(fileIDs) > 0 {
			if err := tx.Where("id IN ?", fileIDs).Delete(&models.File{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("version_id = ?", version.ID).Delete(&models.VersionDependency{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Version{}, version.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}

	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Version] Failed to queue search resync for project %d: %v", project.ID, err)
	}

	LogInfo("version", "delete", fmt.Sprintf("version %d of project %d deleted", versionID, project.ID), &userID, "", "", nil)
	return nil
}

// RecordDownload bumps the version, project and daily-stat counters. Called
// from the public download redirect.
func (s *VersionService) RecordDownload(projectID, versionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Version{}).Where("id = ?", versionID).
			UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).
			UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
			return err
		}
		return bumpDailyStat(tx, projectID)
	})
}
