// Package scheduler runs catalog jobs on cron schedules.
//
// The HTTP surface uses it to reload the catalog periodically. Schedules
// are standard five-field cron expressions or descriptors such as
// "@hourly" and "@every 10m". A run still in progress when the next
// activation fires causes that activation to be skipped, so runs of one
// job never overlap.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/filmdb/filmdb/internal/logger"
)

// Scheduler errors
var (
	ErrNilJob          = errors.New("job cannot be nil")
	ErrEmptyJobID      = errors.New("job id cannot be empty")
	ErrInvalidInterval = errors.New("job interval must be positive")
	ErrInvalidSchedule = errors.New("invalid cron schedule")
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrJobNotFound     = errors.New("job not found")
)

// Job is a unit of recurring work. Schedule takes precedence; when it is
// empty the job runs every Interval.
type Job struct {
	ID       string
	Schedule string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Spec returns the cron expression the job is scheduled with.
func (j Job) Spec() string {
	if j.Schedule != "" {
		return j.Schedule
	}
	return "@every " + j.Interval.String()
}

// ValidateSchedule reports whether spec is a cron expression the scheduler accepts.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	return nil
}

type entry struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool
}

// Scheduler manages recurring jobs.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]*entry
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates an empty, stopped scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron:    newCron(),
		entries: make(map[string]*entry),
		ctx:     context.Background(),
	}
}

func newCron() *cron.Cron {
	log := cronLogger{}
	return cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
}

// Register adds job, replacing any job with the same id. Jobs registered
// while the scheduler runs are picked up immediately.
func (s *Scheduler) Register(job *Job) error {
	if job == nil {
		return ErrNilJob
	}
	if job.ID == "" {
		return ErrEmptyJobID
	}
	if job.Schedule == "" && job.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, job.Interval)
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.ID)
	}
	schedule, err := cron.ParseStandard(job.Spec())
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, job.Spec(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[job.ID]; ok {
		s.cron.Remove(old.id)
	}
	e := &entry{job: *job}
	e.id = s.cron.Schedule(schedule, cron.FuncJob(func() { s.execute(e) }))
	s.entries[job.ID] = e

	logger.Debug("job registered",
		slog.String("job_id", job.ID),
		slog.String("schedule", job.Spec()),
	)
	return nil
}

// Unregister removes the job with id.
func (s *Scheduler) Unregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.cron.Remove(e.id)
	delete(s.entries, id)
	return nil
}

// Start launches the cron loop. Runs receive a context that is canceled
// when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.cron.Start()

	logger.Info("scheduler started", slog.Int("jobs", len(s.entries)))
	return nil
}

// Stop halts the cron loop, cancels running jobs and waits for them to
// return or ctx to expire. The registry is cleared. Stopping a stopped
// scheduler only clears the registry.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	wasStarted := s.started
	if s.cancel != nil {
		s.cancel()
	}
	s.cron = newCron()
	s.entries = make(map[string]*entry)
	s.started = false
	s.ctx, s.cancel = context.Background(), nil
	s.mu.Unlock()

	if !wasStarted {
		return nil
	}

	select {
	case <-c.Stop().Done():
		logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("scheduler stop timed out waiting for running jobs")
		return ctx.Err()
	}
}

// IsStarted reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// HasJob reports whether a job with id is registered.
func (s *Scheduler) HasJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// JobCount returns the number of registered jobs.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// IsRunning reports whether job id is executing right now.
func (s *Scheduler) IsRunning(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	return ok && e.running.Load()
}

// NextRun returns the next activation of job id, or the zero time when
// the scheduler is stopped or the job is unknown.
func (s *Scheduler) NextRun(id string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || !s.started {
		return time.Time{}
	}
	return s.cron.Entry(e.id).Next
}

func (s *Scheduler) execute(e *entry) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	e.running.Store(true)
	defer e.running.Store(false)

	start := time.Now()
	if err := e.job.Run(ctx); err != nil {
		logger.Error("job failed",
			slog.String("job_id", e.job.ID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("job completed",
		slog.String("job_id", e.job.ID),
		slog.Duration("duration", time.Since(start)),
	)
}

// cronLogger routes cron's own messages (skipped runs, recovered panics)
// to the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append([]any{"error", err.Error()}, keysAndValues...)...)
}
