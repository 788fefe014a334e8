package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/logger"
)

const (
	OutboxRetentionJobName = "outbox-retention"

	defaultOutboxRetention = 7 * 24 * time.Hour
	defaultParkedAttempts  = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

// OutboxRetentionJobParams configure the outbox cleanup. ParkedAttempts
// must match the relay's attempt ceiling so parked rows are recognised.
type OutboxRetentionJobParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Repository     outboxPruner
	Retention      time.Duration
	ParkedAttempts int
	Now            func() time.Time
}

// NewOutboxRetentionJob deletes outbox rows older than the retention window
// that were published or parked. Rows still awaiting delivery are kept
// however old they are.
func NewOutboxRetentionJob(p OutboxRetentionJobParams) (Job, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger required")
	case p.DB == nil:
		return nil, errors.New("db runner required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	if p.Retention <= 0 {
		p.Retention = defaultOutboxRetention
	}
	if p.ParkedAttempts <= 0 {
		p.ParkedAttempts = defaultParkedAttempts
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	return JobFunc(OutboxRetentionJobName, func(ctx context.Context) error {
		cutoff := p.Now().UTC().Add(-p.Retention)
		var deleted int64
		err := p.DB.WithTx(ctx, func(tx *gorm.DB) (err error) {
			deleted, err = p.Repository.DeletePublishedBefore(ctx, tx, cutoff, p.ParkedAttempts)
			return err
		})
		if err != nil {
			return fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		p.Logger.Info(p.Logger.WithFields(ctx, map[string]any{
			"cutoff":          cutoff,
			"parked_attempts": p.ParkedAttempts,
			"rows_deleted":    deleted,
		}), "outbox retention complete")
		return nil
	}), nil
}
