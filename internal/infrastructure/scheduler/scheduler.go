package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/familyhub/core/internal/infrastructure/logger"
)

// Scheduler wraps cron-based background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New creates a scheduler evaluating specs in loc
func New(loc *time.Location, appLogger *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: appLogger.WithComponent("scheduler"),
	}
}

// Every registers a job that runs once per interval. A job still running
// when its next tick arrives is skipped for that tick.
func (s *Scheduler) Every(name string, interval time.Duration, job func(ctx context.Context) error) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}

	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)

	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Errorw("Scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debugw("Scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
