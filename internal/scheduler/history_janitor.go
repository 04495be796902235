package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

const (
	// DefaultHistoryRetention is how long delivered alerts stay in Redis.
	DefaultHistoryRetention = 7 * 24 * time.Hour
)

// AlertTrimmer is the part of the Redis store the janitor needs.
type AlertTrimmer interface {
	TrimAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryJanitor periodically drops alert history older than the retention.
// The stream is also length-capped on write; this bounds it by age.
type HistoryJanitor struct {
	store     AlertTrimmer
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

func NewHistoryJanitor(
	store AlertTrimmer,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *HistoryJanitor {
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}
	return &HistoryJanitor{
		store:     store,
		logger:    log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs a first pass immediately, then one per interval.
func (j *HistoryJanitor) Start(ctx context.Context) {
	if err := j.Collect(ctx); err != nil {
		j.logger.Warn("initial alert history trim failed", logger.Error(err))
	}

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Collect(ctx); err != nil {
					j.logger.Error("alert history trim failed", logger.Error(err))
				}
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (j *HistoryJanitor) Stop() {
	close(j.stopCh)
}

// Collect trims entries older than the retention window.
func (j *HistoryJanitor) Collect(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	n, err := j.store.TrimAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("trimmed alert history",
			logger.Int64("removed", n),
			logger.Time("cutoff", cutoff))
	}
	return nil
}
