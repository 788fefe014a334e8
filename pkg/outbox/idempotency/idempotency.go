// Package idempotency records which consumers have handled which outbox
// events, so at-least-once Pub/Sub delivery turns into at-most-once side
// effects.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the slice of the redis client the ledger needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Ledger keys entries as pf:idempotency:evt:processed:<consumer>:<event_id>.
type Ledger struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewLedger keeps entries for ttl; zero keeps them until evicted.
func NewLedger(store Store, ttl time.Duration) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Ledger{store: store, ttl: ttl, now: time.Now}, nil
}

// Claim records that consumer is handling eventID. It returns false when an
// earlier delivery already claimed it.
func (l *Ledger) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := l.store.SetNX(ctx, key, l.now().UTC().Format(time.RFC3339), l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return claimed, nil
}

// Release drops a claim so a redelivery is handled again. Call it when the
// side effect failed in a retryable way.
func (l *Ledger) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return err
	}
	if err := l.store.Del(ctx, key); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

func (l *Ledger) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return l.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}
