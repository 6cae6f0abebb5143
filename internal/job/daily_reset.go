package job

import (
	"context"
	"log/slog"
	"time"

	"rewardhub/internal/logger"
)

// Resetter is satisfied by session.Manager.
type Resetter interface {
	ResetIfNewDay(ctx context.Context) (bool, error)
}

// DailyResetJob checks on every tick whether the calendar day has changed
// and, if so, resets the daily task counters. Ticking more often than once a
// day is cheap: a same-day check only reads the marker.
type DailyResetJob struct {
	resetter Resetter
	stopCh   chan struct{}
	interval time.Duration
	log      *slog.Logger
}

func NewDailyResetJob(resetter Resetter, interval time.Duration) *DailyResetJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DailyResetJob{
		resetter: resetter,
		stopCh:   make(chan struct{}),
		interval: interval,
		log:      logger.WithComponent("DailyResetJob"),
	}
}

func (j *DailyResetJob) Start(ctx context.Context) {
	j.log.Info("daily reset job started", "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("context done, daily reset job exiting")
			return
		case <-j.stopCh:
			j.log.Info("daily reset job stopped")
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *DailyResetJob) Stop() {
	close(j.stopCh)
}

func (j *DailyResetJob) tick(ctx context.Context) {
	reset, err := j.resetter.ResetIfNewDay(ctx)
	if err != nil {
		j.log.Error("daily reset failed", "error", err)
		return
	}
	if reset {
		j.log.Info("daily task counters reset")
	}
}
