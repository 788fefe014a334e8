// Package relay moves committed outbox rows onto Pub/Sub topics.
package relay

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
	"github.com/printforge/printforge-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxAttempts  = 10
	publishTimeout      = 15 * time.Second
	maxBackoff          = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

// Outcome is what happened to one outbox row in a batch.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeRetry     Outcome = "retry"
	OutcomeParked    Outcome = "parked"
)

// BatchStats counts outcomes for one drained batch.
type BatchStats struct {
	Published int
	Retried   int
	Parked    int
}

func (b BatchStats) Total() int { return b.Published + b.Retried + b.Parked }

func (b *BatchStats) add(o Outcome) {
	switch o {
	case OutcomePublished:
		b.Published++
	case OutcomeRetry:
		b.Retried++
	case OutcomeParked:
		b.Parked++
	}
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.Resolved, error)
}

// Publisher sends one message to a single topic.
type Publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// Topics hands out a publisher per topic name. A nil publisher means the
// topic is not configured.
type Topics func(topic string) Publisher

type Params struct {
	Logger       *logger.Logger
	Tx           txRunner
	Store        store
	Resolver     resolver
	Topics       Topics
	Metrics      *metrics.RelayMetrics
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
}

// Relay drains the outbox in batches. It is not safe for concurrent use;
// run one per process and rely on row locking across processes.
type Relay struct {
	logg        *logger.Logger
	tx          txRunner
	store       store
	resolver    resolver
	topics      Topics
	metrics     *metrics.RelayMetrics
	publishers  map[string]Publisher
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func New(params Params) (*Relay, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("event resolver required")
	}
	if params.Topics == nil {
		return nil, fmt.Errorf("topic publishers required")
	}
	r := &Relay{
		logg:        params.Logger,
		tx:          params.Tx,
		store:       params.Store,
		resolver:    params.Resolver,
		topics:      params.Topics,
		metrics:     params.Metrics,
		publishers:  map[string]Publisher{},
		batchSize:   params.BatchSize,
		maxAttempts: params.MaxAttempts,
		poll:        params.PollInterval,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPollInterval
	}
	return r, nil
}

// Run drains until ctx is cancelled. A productive batch is followed
// immediately by another. Empty or failed batches back off.
func (r *Relay) Run(ctx context.Context) error {
	p := pacer{base: r.poll, max: maxBackoff}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := r.Drain(ctx)
		wait := p.after(stats, err)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox relay batch failed", err)
		case stats.Total() > 0:
			r.logg.Debug(r.logg.WithFields(ctx, map[string]any{
				"published": stats.Published,
				"retried":   stats.Retried,
				"parked":    stats.Parked,
			}), "outbox batch drained")
		}
		if wait == 0 {
			continue
		}
		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// Drain handles one batch inside a single transaction so the row locks taken
// by the fetch cover every status update.
func (r *Relay) Drain(ctx context.Context) (BatchStats, error) {
	var stats BatchStats
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		for _, event := range events {
			outcome, topic, cause := r.deliver(ctx, event)
			if err := r.record(ctx, tx, event, outcome, topic, cause); err != nil {
				return err
			}
			stats.add(outcome)
		}
		return nil
	})
	return stats, err
}

func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) (Outcome, string, error) {
	resolved, err := r.resolver.Resolve(event)
	if err != nil {
		return OutcomeParked, "", err
	}
	topic := resolved.Route.Topic

	err = r.publish(ctx, topic, event, resolved.Envelope.EventID)
	switch {
	case err == nil:
		return OutcomePublished, topic, nil
	case registry.IsPermanent(err):
		return OutcomeParked, topic, err
	case event.AttemptCount+1 >= r.maxAttempts:
		return OutcomeParked, topic, fmt.Errorf("max publish attempts reached: %w", err)
	default:
		return OutcomeRetry, topic, err
	}
}

func (r *Relay) record(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, outcome Outcome, topic string, cause error) error {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
		"outcome":        string(outcome),
	}
	if topic != "" {
		fields["topic"] = topic
	}
	logCtx := r.logg.WithFields(ctx, fields)
	r.metrics.IncEvent(string(event.EventType), string(outcome))

	switch outcome {
	case OutcomePublished:
		if err := r.store.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.logg.Info(logCtx, "outbox event published")
	case OutcomeRetry:
		r.logg.Warn(r.logg.WithField(logCtx, "error", cause.Error()), "outbox publish failed, will retry")
		if err := r.store.MarkFailedTx(tx, event.ID, cause); err != nil {
			return fmt.Errorf("mark failed %s: %w", event.ID, err)
		}
	case OutcomeParked:
		// Parked rows sit at the attempt ceiling so the fetch skips them; the
		// retention job deletes them later.
		r.logg.Warn(r.logg.WithField(logCtx, "error", cause.Error()), "outbox event parked")
		if err := r.store.MarkTerminalTx(tx, event.ID, cause, r.maxAttempts); err != nil {
			return fmt.Errorf("park %s: %w", event.ID, err)
		}
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, topic string, event models.OutboxEvent, eventID string) error {
	pub := r.publisherFor(topic)
	if pub == nil {
		return registry.Permanent(fmt.Errorf("no publisher for topic %q", topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: attributes(event, eventID),
	})
	if result == nil {
		return registry.Permanent(fmt.Errorf("publisher for %q returned no result", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

func (r *Relay) publisherFor(topic string) Publisher {
	if pub, ok := r.publishers[topic]; ok {
		return pub
	}
	pub := r.topics(topic)
	if pub != nil {
		r.publishers[topic] = pub
	}
	return pub
}

// Stop flushes and releases every cached topic publisher.
func (r *Relay) Stop() {
	for topic, pub := range r.publishers {
		if s, ok := pub.(interface{ Stop() }); ok {
			s.Stop()
		}
		delete(r.publishers, topic)
	}
}

// attributes are what subscribers filter and deduplicate on.
func attributes(event models.OutboxEvent, eventID string) map[string]string {
	if eventID == "" {
		eventID = event.ID.String()
	}
	return map[string]string{
		"event_id":       eventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// pacer doubles the wait after each empty or failed batch up to max.
type pacer struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func (p *pacer) fail() time.Duration {
	if p.current <= 0 {
		p.current = p.base
	}
	p.current *= 2
	if p.current > p.max {
		p.current = p.max
	}
	return p.current
}

func (p *pacer) reset() { p.current = 0 }

// after returns how long to wait once a batch finished.
func (p *pacer) after(stats BatchStats, err error) time.Duration {
	if err != nil || stats.Total() == 0 {
		return p.fail()
	}
	p.reset()
	return 0
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
