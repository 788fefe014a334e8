package cron

import (
	"context"
	"fmt"

	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type sweeper interface {
	AutoValidateAllEligibleProducts(ctx context.Context) (*cascade.Result, error)
}

// CascadeSweepJobParams configure the scheduled global sweep.
type CascadeSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper sweeper
}

// NewCascadeSweepJob validates pending products whose design was approved but
// missed by an earlier cascade.
func NewCascadeSweepJob(params CascadeSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("cascade sweeper required")
	}
	return &cascadeSweepJob{logg: params.Logger, sweeper: params.Sweeper}, nil
}

type cascadeSweepJob struct {
	logg    *logger.Logger
	sweeper sweeper
}

func (j *cascadeSweepJob) Name() string { return "cascade-sweep" }

// Run fails only when the candidate scan fails. Per-product failures are
// logged and retried on the next cycle.
func (j *cascadeSweepJob) Run(ctx context.Context) error {
	result, err := j.sweeper.AutoValidateAllEligibleProducts(ctx)
	if err != nil {
		return fmt.Errorf("cascade sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"updated":               result.UpdatedCount(),
		"failed":                len(result.Failures),
		"skipped":               result.Skipped,
		"notification_failures": result.NotificationFailures,
	})
	j.logg.Info(logCtx, "cascade sweep complete")
	return nil
}
