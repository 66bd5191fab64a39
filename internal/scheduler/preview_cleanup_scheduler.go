package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/configurator-backend/internal/storage"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// PreviewCleanupScheduler periodically deletes previews older than the
// retention window.
type PreviewCleanupScheduler struct {
	cron      *cron.Cron
	store     storage.Storage
	prefix    string
	retention time.Duration
	schedule  string
	now       func() time.Time
}

func NewPreviewCleanupScheduler(store storage.Storage, prefix, schedule string, retention time.Duration) *PreviewCleanupScheduler {
	return &PreviewCleanupScheduler{
		cron:      cron.New(),
		store:     store,
		prefix:    prefix,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
	}
}

// Start registers the sweep and starts the cron runner.
func (s *PreviewCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Error("Scheduled preview cleanup failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for preview cleanup", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Preview cleanup scheduler started", map[string]interface{}{
		"schedule":  s.schedule,
		"retention": s.retention.String(),
	})
	return nil
}

// RunOnce deletes every preview last written before now minus retention.
func (s *PreviewCleanupScheduler) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.store.DeleteOlderThan(ctx, s.prefix, cutoff)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		logger.Info("Expired previews deleted", map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff,
		})
	}
	return deleted, nil
}

// Stop waits for a running sweep to finish.
func (s *PreviewCleanupScheduler) Stop() {
	logger.Info("Stopping preview cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Preview cleanup scheduler stopped")
}
