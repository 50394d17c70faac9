package scheduler

import (
	"context"
	"time"

	"kanvaro_backend/platform/logger"
)

const (
	defaultSearchLogCleanupInterval = time.Hour
	defaultSearchLogRetention       = 90 * 24 * time.Hour
)

// SearchLogPruner deletes search-log rows older than a cutoff.
type SearchLogPruner interface {
	DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchLogCleanup periodically removes old search-log rows.
type SearchLogCleanup struct {
	repo      SearchLogPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewSearchLogCleanup(repo SearchLogPruner, log *logger.Logger, interval, retention time.Duration) *SearchLogCleanup {
	if interval <= 0 {
		interval = defaultSearchLogCleanupInterval
	}
	if retention <= 0 {
		retention = defaultSearchLogRetention
	}
	if log == nil {
		log = logger.Nop()
	}

	return &SearchLogCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *SearchLogCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *SearchLogCleanup) cleanup(ctx context.Context) {
	cutoff := c.now().Add(-c.retention)

	deleted, err := c.repo.DeleteSearchLogsBefore(ctx, cutoff)
	if err != nil {
		c.log.Warn("search log cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("search log cleanup deleted old rows", "deleted", deleted)
	}
}
