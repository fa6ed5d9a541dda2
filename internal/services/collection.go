package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

// CollectionService manages user-owned project collections
type CollectionService struct {
	db       *gorm.DB
	follows  *FollowService
	projects *ProjectService
}

// NewCollectionService creates a new collection service instance
func NewCollectionService(db *gorm.DB, follows *FollowService, projects *ProjectService) *CollectionService {
	return &CollectionService{db: db, follows: follows, projects: projects}
}

type CreateCollectionRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=500"`
	Visibility  string `json:"visibility"`
}

// Create makes a new collection owned by userID.
func (s *CollectionService) Create(userID uint, req *CreateCollectionRequest) (*models.Collection, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	collection := &models.Collection{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Visibility:  visibility,
	}
	if err := s.db.Create(collection).Error; err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return collection, nil
}

// ListByUser returns the user's own collections.
func (s *CollectionService) ListByUser(userID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	return collections, nil
}

func (s *CollectionService) getOwned(collectionID, userID uint) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.First(&collection, collectionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Collection not found")
		}
		return nil, err
	}
	if collection.UserID != userID {
		// Same conflation as projects: ownership isn't leaked.
		return nil, response.NewNotFound("Collection not found")
	}
	return &collection, nil
}

// ProjectIDs resolves a collection reference to its project ids, in order.
// The "follows" sentinel resolves to the viewer's follow list.
func (s *CollectionService) ProjectIDs(ref string, viewerID uint) ([]uint, error) {
	if ref == models.FollowsCollectionID {
		if viewerID == 0 {
			return nil, response.NewUnauthorized("Sign in to view your followed projects")
		}
		return s.follows.Following(viewerID)
	}

	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return nil, response.NewNotFound("Collection not found")
	}

	var collection models.Collection
	if err := s.db.First(&collection, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Collection not found")
		}
		return nil, err
	}
	if collection.Visibility == models.VisibilityPrivate && collection.UserID != viewerID {
		return nil, response.NewNotFound("Collection not found")
	}

	var ids []uint
	err = s.db.Model(&models.CollectionProject{}).
		Where("collection_id = ?", collection.ID).
		Order("ordering ASC, created_at ASC").
		Pluck("project_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load collection entries: %w", err)
	}
	return ids, nil
}

// Projects resolves a collection reference and hydrates it through the
// accessibility-filtered listing; entries the viewer can't see drop out.
func (s *CollectionService) Projects(ref string, viewerID uint, viewerRole string) ([]models.Project, error) {
	ids, err := s.ProjectIDs(ref, viewerID)
	if err != nil {
		return nil, err
	}
	return s.projects.GetMany(ids, viewerID, viewerRole)
}

// AddProject appends a project to an owned collection. Adding a project
// twice is a no-op error; adding an inaccessible project is NotFound.
func (s *CollectionService) AddProject(collectionID, projectID, userID uint, userRole string) error {
	collection, err := s.getOwned(collectionID, userID)
	if err != nil {
		return err
	}
	if _, err := s.projects.GetAccessible(projectID, userID, userRole); err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.CollectionProject{}).
		Where("collection_id = ? AND project_id = ?", collection.ID, projectID).
		Count(&count)
	if count > 0 {
		return response.NewInvalidRequest("Project is already in this collection")
	}

	var maxOrdering int
	s.db.Model(&models.CollectionProject{}).
		Where("collection_id = ?", collection.ID).
		Select("COALESCE(MAX(ordering), 0)").Scan(&maxOrdering)

	entry := models.CollectionProject{
		CollectionID: collection.ID,
		ProjectID:    projectID,
		Ordering:     maxOrdering + 1,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to add project to collection: %w", err)
	}
	return nil
}

// RemoveProject drops a project from an owned collection.
func (s *CollectionService) RemoveProject(collectionID, projectID, userID uint) error {
	collection, err := s.getOwned(collectionID, userID)
	if err != nil {
		return err
	}
	res := s.db.Where("collection_id = ? AND project_id = ?", collection.ID, projectID).
		Delete(&models.CollectionProject{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove project from collection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return response.NewInvalidRequest("No projects removed!")
	}
	return nil
}

// Delete removes an owned collection and its entries.
func (s *CollectionService) Delete(collectionID, userID uint) error {
	collection, err := s.getOwned(collectionID, userID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&models.CollectionProject{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Collection{}, collection.ID).Error
	})
}
