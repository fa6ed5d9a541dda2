package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/cache"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"gorm.io/gorm"
)

const (
	// CarouselTTL bounds how stale the home page is allowed to be.
	CarouselTTL = 600 * time.Second

	// DefaultCarouselCount is used when the caller doesn't ask for a size.
	DefaultCarouselCount = 12
)

func carouselCacheKey(count int) string {
	return fmt.Sprintf("carousel:home:%d", count)
}

// CarouselService assembles the home-page project carousel: a random slice
// of the listed catalog mixed with the currently trending projects.
type CarouselService struct {
	db       *gorm.DB
	cache    cache.Cache
	index    search.ProjectIndex
	projects *ProjectService
}

// NewCarouselService creates a new carousel service instance
func NewCarouselService(db *gorm.DB, c cache.Cache, index search.ProjectIndex, projects *ProjectService) *CarouselService {
	return &CarouselService{db: db, cache: c, index: index, projects: projects}
}

// HomePage returns the carousel for an anonymous viewer. Results are cached
// per requested size; a cache hit is returned verbatim. The slice can come
// back shorter than count when the catalog is small.
func (s *CarouselService) HomePage(ctx context.Context, count int) ([]models.Project, error) {
	if count <= 0 {
		count = DefaultCarouselCount
	}

	key := carouselCacheKey(count)
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var projects []models.Project
		if err := json.Unmarshal([]byte(cached), &projects); err == nil {
			return projects, nil
		}
		// Corrupt entry: fall through and rebuild.
		logger.Warnf("[Carousel] Discarding unreadable cache entry %s", key)
	}

	trendingCount := count / 3
	trendingIDs, err := s.trending(trendingCount)
	if err != nil {
		logger.Warnf("[Carousel] Trending lookup failed: %v", err)
		trendingIDs = nil
	}

	inTrending := make(map[uint]bool, len(trendingIDs))
	for _, id := range trendingIDs {
		inTrending[id] = true
	}

	// Oversample so dedup against trending doesn't starve the random slice.
	candidates, err := s.RandomIDs(count * 2)
	if err != nil {
		return nil, err
	}
	// The random quota is fixed up front. When trending comes back short the
	// carousel stays short rather than backfilling with more random picks.
	randomCount := count - trendingCount
	randomIDs := make([]uint, 0, randomCount)
	for _, id := range candidates {
		if len(randomIDs) == randomCount {
			break
		}
		if !inTrending[id] {
			randomIDs = append(randomIDs, id)
		}
	}

	out := make([]models.Project, 0, count)
	randomProjects, err := s.hydrate(randomIDs)
	if err != nil {
		return nil, err
	}
	out = append(out, randomProjects...)
	trendingProjects, err := s.hydrate(trendingIDs)
	if err != nil {
		return nil, err
	}
	out = append(out, trendingProjects...)

	if payload, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), CarouselTTL); err != nil {
			logger.Warnf("[Carousel] Failed to cache %s: %v", key, err)
		}
	}
	return out, nil
}

// Random returns up to count indexable projects in random order, hydrated
// through the standard accessibility-filtered listing.
func (s *CarouselService) Random(count int) ([]models.Project, error) {
	if count <= 0 {
		count = DefaultCarouselCount
	}
	ids, err := s.RandomIDs(count)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ids)
}

// RandomIDs samples up to count ids from the approved, listed catalog.
// Shuffling happens here rather than in SQL so it works the same on every
// database driver.
func (s *CarouselService) RandomIDs(count int) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.Project{}).
		Where("status = ? AND visibility = ?", models.StatusApproved, models.VisibilityListed).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sample projects: %w", err)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

func (s *CarouselService) trending(count int) ([]uint, error) {
	if count <= 0 {
		return nil, nil
	}
	docs, _, err := s.index.Search(search.Query{Sort: search.SortRecentDownloads, Limit: int64(count)})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// hydrate fetches ids through the accessibility-filtered listing and puts
// the survivors back in sampled order. Missing or no-longer-visible ids
// simply drop out; the result is never topped up.
func (s *CarouselService) hydrate(ids []uint) ([]models.Project, error) {
	projects, err := s.projects.GetMany(ids, 0, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	ordered := make([]models.Project, 0, len(projects))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, *p)
		}
	}
	return ordered, nil
}
