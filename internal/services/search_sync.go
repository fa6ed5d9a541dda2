package services

import (
	"context"
	"errors"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"gorm.io/gorm"
)

// RecentDownloadsWindow is the lookback used for the recency-weighted
// download metric that drives the trending sort.
const RecentDownloadsWindow = 14 * 24 * time.Hour

// SearchSyncService keeps the search index reconciled with project rows.
// MarkDirty queues project ids; Process re-derives each document from the
// current row (or deletes it when the project is gone or not indexable), so
// a resync can run any number of times in any order.
type SearchSyncService struct {
	db    *gorm.DB
	index search.ProjectIndex
	queue TaskQueue
}

func NewSearchSyncService(db *gorm.DB, index search.ProjectIndex, queue TaskQueue) *SearchSyncService {
	return &SearchSyncService{db: db, index: index, queue: queue}
}

// MarkDirty schedules a resync of the given projects.
func (s *SearchSyncService) MarkDirty(projectIDs []uint) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return s.queue.Enqueue(&SearchSyncTask{ProjectIDs: projectIDs})
}

// Process handles one resync task.
func (s *SearchSyncService) Process(_ context.Context, task *SearchSyncTask) error {
	var upserts []search.ProjectDocument
	var removals []uint

	for _, id := range task.ProjectIDs {
		doc, indexable, err := s.buildFor(id)
		if err != nil {
			return err
		}
		if indexable {
			upserts = append(upserts, doc)
		} else {
			removals = append(removals, id)
		}
	}

	if err := s.index.Upsert(upserts); err != nil {
		return err
	}
	return s.index.Remove(removals)
}

// buildFor derives the search document for one project id. The second return
// is false when the project is missing or not indexable.
func (s *SearchSyncService) buildFor(projectID uint) (search.ProjectDocument, bool, error) {
	var project models.Project
	err := s.db.First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return search.ProjectDocument{}, false, nil
	}
	if err != nil {
		return search.ProjectDocument{}, false, err
	}
	if !project.IsIndexable() {
		return search.ProjectDocument{}, false, nil
	}

	var versions []models.Version
	if err := s.db.Where("project_id = ?", projectID).Find(&versions).Error; err != nil {
		return search.ProjectDocument{}, false, err
	}

	iconURL := ""
	if project.IconFileID != nil {
		var icon models.File
		if err := s.db.First(&icon, *project.IconFileID).Error; err == nil {
			iconURL = icon.URL
		}
	}

	recent, err := s.recentDownloads(projectID)
	if err != nil {
		return search.ProjectDocument{}, false, err
	}

	return search.BuildDocument(&project, versions, iconURL, recent), true, nil
}

// recentDownloads sums the daily-stat rollups inside the trending window.
func (s *SearchSyncService) recentDownloads(projectID uint) (int64, error) {
	since := time.Now().Add(-RecentDownloadsWindow)
	var total int64
	err := s.db.Model(&models.ProjectDailyStat{}).
		Where("project_id = ? AND date >= ?", projectID, since).
		Select("COALESCE(SUM(downloads), 0)").Scan(&total).Error
	return total, err
}

// FullReindex rebuilds the index from every indexable project row,
// batch by batch. Runs nightly and on demand.
func (s *SearchSyncService) FullReindex(ctx context.Context) error {
	const batchSize = 200

	var lastID uint
	total := 0
	for {
		var ids []uint
		err := s.db.Model(&models.Project{}).
			Where("id > ?", lastID).
			Order("id").Limit(batchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		if err := s.Process(ctx, &SearchSyncTask{ProjectIDs: ids}); err != nil {
			return err
		}
		total += len(ids)
		lastID = ids[len(ids)-1]
	}

	logger.Infof("[SearchSync] Full reindex complete, %d projects scanned", total)
	return nil
}
