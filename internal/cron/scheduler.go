package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultJobTimeout = 5 * time.Minute
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultTimeout = "timeout"
	resultPanic   = "panic"
)

// Locker grants one worker at a time the right to run a cycle.
type Locker interface {
	TryLock(ctx context.Context) (Lease, bool, error)
}

// Lease is held for one cycle and renewed before every job, so the lock TTL
// only has to cover the longest single job.
type Lease interface {
	Extend(ctx context.Context) error
	Release(ctx context.Context) error
}

type SchedulerParams struct {
	Logger     *logger.Logger
	Locker     Locker
	Jobs       []Job
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Scheduler runs every job in order once per interval, under a shared lock.
type Scheduler struct {
	logg       *logger.Logger
	locker     Locker
	jobs       []Job
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	s := &Scheduler{
		logg:       params.Logger,
		locker:     params.Locker,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}
	seen := map[string]bool{}
	for _, job := range params.Jobs {
		if job == nil {
			continue
		}
		if seen[job.Name()] {
			return nil, fmt.Errorf("duplicate job %q", job.Name())
		}
		seen[job.Name()] = true
		s.jobs = append(s.jobs, job)
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// Report describes one cycle.
type Report struct {
	Skipped bool
	Ran     []string
	Failed  []string
}

// Run ticks immediately and then every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.Tick(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one cycle. A job failure never stops later jobs; the error
// returned is only for lock problems, and a lost lease ends the cycle.
func (s *Scheduler) Tick(ctx context.Context) (Report, error) {
	var report Report
	lease, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		return report, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !ok {
		report.Skipped = true
		s.metrics.IncSkippedCycle()
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return report, nil
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "release cron lock", err)
		}
	}()

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		if err := lease.Extend(ctx); err != nil {
			return report, fmt.Errorf("renew cron lock before %s: %w", job.Name(), err)
		}
		report.Ran = append(report.Ran, job.Name())
		if !s.runJob(ctx, job) {
			report.Failed = append(report.Failed, job.Name())
		}
	}
	return report, nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) bool {
	logCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx, cancel := context.WithTimeout(logCtx, s.jobTimeout)
	defer cancel()

	start := s.now()
	err := safeRun(jobCtx, job)
	took := s.now().Sub(start)

	result := resultSuccess
	switch {
	case err == nil:
	case errors.Is(err, errJobPanicked):
		result = resultPanic
	case errors.Is(err, context.DeadlineExceeded) && jobCtx.Err() != nil:
		result = resultTimeout
	default:
		result = resultFailure
	}
	s.metrics.ObserveRun(job.Name(), result, took, s.now())

	logCtx = s.logg.WithFields(logCtx, map[string]any{"result": result, "duration_ms": took.Milliseconds()})
	if err != nil {
		s.logg.Error(logCtx, "cron job failed", err)
		return false
	}
	s.logg.Info(logCtx, "cron job finished")
	return true
}

var errJobPanicked = errors.New("job panicked")

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errJobPanicked, rec)
		}
	}()
	return job.Run(ctx)
}
