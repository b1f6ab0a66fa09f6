package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/halcyonhq/beacon/pkg/observability"
)

// RetentionSweeper periodically deletes audit events past the retention
// window.
type RetentionSweeper struct {
	logger    *observability.Logger
	dbLogger  *DBLogger
	retention time.Duration
	schedule  string
	cron      *cron.Cron
}

// NewRetentionSweeper creates a sweeper. schedule is a standard cron
// expression; retention is how long events are kept.
func NewRetentionSweeper(dbLogger *DBLogger, retention time.Duration, schedule string, logger *observability.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		logger:    logger,
		dbLogger:  dbLogger,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(),
	}
}

// Start schedules the sweep and begins running it
func (s *RetentionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *RetentionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.dbLogger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("audit retention sweep failed")
		return
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("audit retention sweep completed")
	}
}
