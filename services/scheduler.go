package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"vastai-scraper/utils"
)

// Scheduler runs a cycle once at start and then on a cron schedule. A tick
// that fires while the previous cycle is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	run     func(ctx context.Context) bool
	running atomic.Bool
	logger  utils.Logger
}

// NewScheduler parses a standard 5-field cron expression.
func NewScheduler(spec string, run func(ctx context.Context) bool, logger utils.Logger) (*Scheduler, error) {
	cl := utils.CronLogger{Logger: logger.With(utils.Fields{"component": "scheduler"})}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)

	s := &Scheduler{cron: c, spec: spec, run: run, logger: cl.Logger}
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs one cycle synchronously, then starts the recurring schedule.
func (s *Scheduler) Start() {
	s.tick()
	s.cron.Start()
	s.logger.With(utils.Fields{"schedule": s.spec}).Info("Scheduler started")
}

// Stop halts the schedule and returns a context that is done once any
// running cycle has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	s.runExclusive()
}

// runExclusive runs one cycle unless another is still in flight. It reports
// whether the cycle ran.
func (s *Scheduler) runExclusive() bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous cycle still running, skipping tick")
		return false
	}
	defer s.running.Store(false)
	s.run(context.Background())
	return true
}
