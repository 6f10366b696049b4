package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweepFunc drops entries idle for longer than idle and reports how many went
type SweepFunc func(ctx context.Context, idle time.Duration) int

// SweepJob is one periodic cleanup, e.g. abandoned wizard sessions
type SweepJob struct {
	Name     string
	Schedule string
	Idle     time.Duration
	Sweep    SweepFunc
}

// Sweeper runs SweepJobs on cron schedules
type Sweeper struct {
	cron   *cron.Cron
	jobs   []SweepJob
	logger *zap.Logger
}

// NewSweeper creates a sweeper; jobs are scheduled on Start
func NewSweeper(logger *zap.Logger, jobs ...SweepJob) *Sweeper {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Sweeper{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger))),
		jobs:   jobs,
		logger: logger,
	}
}

// Name implements Worker
func (s *Sweeper) Name() string { return "sweeper" }

// Start schedules every job and starts the cron loop
func (s *Sweeper) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(ctx, job) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.logger.Info("Scheduled sweep job",
			zap.String("job", job.Name),
			zap.String("schedule", job.Schedule),
			zap.Duration("idle", job.Idle))
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish
func (s *Sweeper) Stop() error {
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce runs every job immediately and returns the total dropped
func (s *Sweeper) RunOnce(ctx context.Context) int {
	total := 0
	for _, job := range s.jobs {
		total += s.run(ctx, job)
	}
	return total
}

func (s *Sweeper) run(ctx context.Context, job SweepJob) int {
	if ctx.Err() != nil {
		return 0
	}
	removed := job.Sweep(ctx, job.Idle)
	if removed > 0 {
		s.logger.Info("Sweep completed",
			zap.String("job", job.Name),
			zap.Int("removed", removed))
	}
	return removed
}
