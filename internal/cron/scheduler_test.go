package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
)

type stubLocker struct {
	held     bool
	err      error
	released int
	extended int
	// lostAfter fails Extend once this many renewals succeeded; zero never fails.
	lostAfter int
}

func (s *stubLocker) TryLock(context.Context) (Lease, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if s.held {
		return nil, false, nil
	}
	return s, true, nil
}

func (s *stubLocker) Extend(context.Context) error {
	if s.lostAfter > 0 && s.extended >= s.lostAfter {
		return ErrLeaseLost
	}
	s.extended++
	return nil
}

func (s *stubLocker) Release(context.Context) error {
	s.released++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestScheduler(t *testing.T, locker Locker, jobs ...Job) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerParams{
		Logger:     testLogger(),
		Locker:     locker,
		Jobs:       jobs,
		Metrics:    metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		JobTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	return s
}

func TestTickRunsEveryJobDespiteFailures(t *testing.T) {
	var order []string
	record := func(name string, err error) Job {
		return JobFunc(name, func(context.Context) error {
			order = append(order, name)
			return err
		})
	}
	locker := &stubLocker{}
	s := newTestScheduler(t, locker,
		record("first", nil),
		record("second", errors.New("boom")),
		JobFunc("third", func(context.Context) error { panic("bad job") }),
		record("fourth", nil),
	)

	report, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "fourth"}, order)
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, report.Ran)
	assert.Equal(t, []string{"second", "third"}, report.Failed)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, 4, locker.extended)
}

func TestTickStopsWhenLeaseLost(t *testing.T) {
	var ran []string
	job := func(name string) Job {
		return JobFunc(name, func(context.Context) error {
			ran = append(ran, name)
			return nil
		})
	}
	locker := &stubLocker{lostAfter: 1}
	s := newTestScheduler(t, locker, job("sweep"), job("retention"))

	report, err := s.Tick(context.Background())

	require.ErrorIs(t, err, ErrLeaseLost)
	assert.Equal(t, []string{"sweep"}, ran)
	assert.Equal(t, []string{"sweep"}, report.Ran)
	assert.Equal(t, 1, locker.released)
}

func TestTickSkipsWhenLockHeld(t *testing.T) {
	ran := false
	s := newTestScheduler(t, &stubLocker{held: true}, JobFunc("sweep", func(context.Context) error {
		ran = true
		return nil
	}))

	report, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.False(t, ran)
}

func TestTickReturnsLockErrors(t *testing.T) {
	s := newTestScheduler(t, &stubLocker{err: errors.New("redis down")})
	_, err := s.Tick(context.Background())
	assert.ErrorContains(t, err, "redis down")
}

func TestJobTimeoutCancelsContext(t *testing.T) {
	s := newTestScheduler(t, &stubLocker{}, JobFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	report, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slow"}, report.Failed)
}

func TestNewSchedulerRejectsDuplicateNames(t *testing.T) {
	noop := func(context.Context) error { return nil }
	_, err := NewScheduler(SchedulerParams{
		Logger: testLogger(),
		Locker: &stubLocker{},
		Jobs:   []Job{JobFunc("sweep", noop), nil, JobFunc("sweep", noop)},
	})
	assert.ErrorContains(t, err, `duplicate job "sweep"`)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	runs := 0
	s := newTestScheduler(t, &stubLocker{}, JobFunc("count", func(context.Context) error {
		runs++
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Zero(t, runs, "a cancelled context stops the job loop before any job")
}
