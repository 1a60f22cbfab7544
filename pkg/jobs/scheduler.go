package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs periodic maintenance tasks on cron expressions.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler constructs a scheduler. Jobs run in UTC.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Register adds a named task on the given cron spec.
func (s *Scheduler) Register(spec, name string, task func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := task(context.Background()); err != nil {
			s.logger.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled task completed", zap.String("task", name))
	})
	return err
}

// Start begins cron dispatch in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts dispatch and waits for running tasks.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
