package services

import (
	"context"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// FollowService maintains the user↔project follow relation and keeps
// Project.Followers an accurate count. The three writes per mutation (follow
// rows, per-project counters, search resync) are dispatched concurrently and
// joint-awaited: one failing write does not undo the others.
type FollowService struct {
	db   *gorm.DB
	sync *SearchSyncService
}

func NewFollowService(db *gorm.DB, sync *SearchSyncService) *FollowService {
	return &FollowService{db: db, sync: sync}
}

// AddFollows follows every addable project in the batch. Requested ids are
// partitioned into already-following (skipped), private/inaccessible
// (rejected) and addable; an empty addable set is an error whose message
// depends on whether a private candidate was seen.
func (s *FollowService) AddFollows(ctx context.Context, projectIDs []uint, userID uint, userRole string) error {
	if len(projectIDs) == 0 {
		return response.NewInvalidRequest("No projects specified")
	}

	var projects []models.Project
	err := s.db.Preload("Team.Members").Preload("Team.Organization.Team.Members").
		Where("id IN ?", projectIDs).Find(&projects).Error
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return response.NewInvalidRequest("Project not found")
	}

	var followed []uint
	if err := s.db.Model(&models.ProjectFollow{}).Where("user_id = ?", userID).
		Pluck("project_id", &followed).Error; err != nil {
		return err
	}
	followedSet := make(map[uint]struct{}, len(followed))
	for _, id := range followed {
		followedSet[id] = struct{}{}
	}

	var addable []uint
	sawPrivate := false
	for i := range projects {
		p := &projects[i]
		if _, already := followedSet[p.ID]; already {
			continue
		}
		if !IsAccessible(p, userID, userRole) {
			sawPrivate = true
			continue
		}
		addable = append(addable, p.ID)
	}

	if len(addable) == 0 {
		if sawPrivate {
			return response.NewInvalidRequest("You can't follow a private project")
		}
		return response.NewInvalidRequest("Already following!")
	}

	rows := make([]models.ProjectFollow, 0, len(addable))
	for _, id := range addable {
		rows = append(rows, models.ProjectFollow{UserID: userID, ProjectID: id})
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.Create(&rows).Error
	})
	g.Go(func() error {
		return s.db.Model(&models.Project{}).Where("id IN ?", addable).
			UpdateColumn("followers", gorm.Expr("followers + ?", 1)).Error
	})
	g.Go(func() error {
		return s.sync.MarkDirty(addable)
	})
	return g.Wait()
}

// RemoveFollows unfollows every requested project present in the user's
// follow list. An empty intersection is an error; nothing else changes.
func (s *FollowService) RemoveFollows(ctx context.Context, projectIDs []uint, userID uint) error {
	if len(projectIDs) == 0 {
		return response.NewInvalidRequest("No projects specified")
	}

	var current []uint
	if err := s.db.Model(&models.ProjectFollow{}).Where("user_id = ?", userID).
		Pluck("project_id", &current).Error; err != nil {
		return err
	}

	requested := make(map[uint]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		requested[id] = struct{}{}
	}

	var toRemove []uint
	for _, id := range current {
		if _, ok := requested[id]; ok {
			toRemove = append(toRemove, id)
		}
	}
	if len(toRemove) == 0 {
		return response.NewInvalidRequest("No projects removed!")
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.Where("user_id = ? AND project_id IN ?", userID, toRemove).
			Delete(&models.ProjectFollow{}).Error
	})
	g.Go(func() error {
		return s.db.Model(&models.Project{}).Where("id IN ?", toRemove).
			UpdateColumn("followers", gorm.Expr("followers - ?", 1)).Error
	})
	g.Go(func() error {
		return s.sync.MarkDirty(toRemove)
	})
	return g.Wait()
}

// Following returns the ids of the user's follow list, newest first.
func (s *FollowService) Following(userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.ProjectFollow{}).Where("user_id = ?", userID).
		Order("created_at DESC").Pluck("project_id", &ids).Error
	return ids, err
}
