package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type stubSweeper struct {
	result *cascade.Result
	err    error
	calls  int
}

func (s *stubSweeper) AutoValidateAllEligibleProducts(context.Context) (*cascade.Result, error) {
	s.calls++
	return s.result, s.err
}

func TestCascadeSweepJobLogsOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	sweeper := &stubSweeper{result: &cascade.Result{
		Updated: []cascade.UpdatedProduct{{ID: uuid.New(), Status: enums.VendorProductStatusPublished}},
		Failures: []cascade.Failure{{
			ProductID: uuid.New(),
			Reason:    cascade.ReasonAlreadyValidated,
			Err:       errors.New("lost race"),
		}},
	}}
	job, err := NewCascadeSweepJob(CascadeSweepJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test", Output: buf}),
		Sweeper: sweeper,
	})
	require.NoError(t, err)
	assert.Equal(t, "cascade-sweep", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, sweeper.calls)
	assert.Contains(t, buf.String(), `"updated":1`)
	assert.Contains(t, buf.String(), `"failed":1`)
}

func TestCascadeSweepJobPropagatesScanError(t *testing.T) {
	job, err := NewCascadeSweepJob(CascadeSweepJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}}),
		Sweeper: &stubSweeper{err: errors.New("db down")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "db down")
}

func TestNewCascadeSweepJobRequiresSweeper(t *testing.T) {
	_, err := NewCascadeSweepJob(CascadeSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}}),
	})
	assert.Error(t, err)
}
