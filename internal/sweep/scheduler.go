package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ebooking/pkg/logger"

	"github.com/robfig/cron/v3"
)

type JobFunc func(ctx context.Context) error

// Scheduler runs housekeeping jobs on cron schedules in UTC. A job never
// overlaps with itself and a panic inside one is logged, not fatal.
type Scheduler struct {
	cron    *cron.Cron
	chain   cron.Chain
	log     *logger.Logger
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]cron.Job

	base   context.Context
	cancel context.CancelFunc
}

func NewScheduler(timeout time.Duration, log *logger.Logger) *Scheduler {
	log = log.Component("scheduler")
	adapter := cronLogger{log: log}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(adapter),
		),
		chain:   cron.NewChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		log:     log,
		timeout: timeout,
		jobs:    map[string]cron.Job{},
		base:    base,
		cancel:  cancel,
	}
}

// Add registers fn under name on a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job := s.chain.Then(cron.FuncJob(func() { s.execute(name, fn) }))
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, name, err)
	}
	s.jobs[name] = job
	s.log.Info("Job scheduled", "job", name, "schedule", spec)
	return nil
}

// Run executes a registered job once, synchronously. It is skipped if the
// same job is already running from its schedule.
func (s *Scheduler) Run(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	job.Run()
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs until ctx is done, then
// cancels whatever is still in flight.
func (s *Scheduler) Stop(ctx context.Context) error {
	defer s.cancel()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) execute(name string, fn JobFunc) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		// Retried on the next tick.
		s.log.Error("Job failed", "job", name, "duration", time.Since(start), "error", err)
		return
	}
	s.log.Debug("Job finished", "job", name, "duration", time.Since(start))
}

// cronLogger routes cron's logr-style calls to the service logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		l.log.Warn("Job still running, tick skipped", keysAndValues...)
		return
	}
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
