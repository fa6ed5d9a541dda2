package services

import (
	"context"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/robfig/cron/v3"
)

// reindexCronExpr runs the nightly full reindex at 03:00.
const reindexCronExpr = "0 3 * * *"

// ReindexScheduler periodically rebuilds the whole search index so that
// drift from missed resyncs self-corrects within a day.
type ReindexScheduler struct {
	sync          *SearchSyncService
	cronScheduler *cron.Cron
}

func NewReindexScheduler(sync *SearchSyncService) *ReindexScheduler {
	return &ReindexScheduler{sync: sync}
}

func (s *ReindexScheduler) Start() {
	s.cronScheduler = cron.New()

	_, err := s.cronScheduler.AddFunc(reindexCronExpr, func() {
		if err := s.sync.FullReindex(context.Background()); err != nil {
			logger.Warnf("[Reindex] Full reindex failed: %v", err)
		}
	})
	if err != nil {
		logger.Warnf("[Reindex] Failed to add cron job: %v", err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[Reindex] Scheduler started (cron: %s)", reindexCronExpr)
}

func (s *ReindexScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}
