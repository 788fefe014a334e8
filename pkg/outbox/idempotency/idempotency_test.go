package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]any
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return m.err
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "pf:idempotency:" + scope + ":" + id
}

func TestClaimFirstDeliveryOnly(t *testing.T) {
	store := newMemoryStore()
	ledger, err := NewLedger(store, 24*time.Hour)
	require.NoError(t, err)
	ledger.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }
	eventID := uuid.New()

	first, err := ledger.Claim(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.Claim(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	assert.False(t, again)

	key := "pf:idempotency:evt:processed:notification-email:" + eventID.String()
	assert.Equal(t, "2026-09-01T08:00:00Z", store.values[key])
	assert.Equal(t, 24*time.Hour, store.ttls[key])
}

func TestClaimIsPerConsumer(t *testing.T) {
	ledger, err := NewLedger(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	eventID := uuid.New()

	first, err := ledger.Claim(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	other, err := ledger.Claim(context.Background(), "audit", eventID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, other)
}

func TestReleaseAllowsReclaim(t *testing.T) {
	ledger, err := NewLedger(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	_, err = ledger.Claim(ctx, "notification-email", eventID)
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, "notification-email", eventID))

	again, err := ledger.Claim(ctx, "notification-email", eventID)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestClaimErrors(t *testing.T) {
	store := newMemoryStore()
	ledger, err := NewLedger(store, time.Hour)
	require.NoError(t, err)

	_, err = ledger.Claim(context.Background(), "", uuid.New())
	assert.ErrorContains(t, err, "consumer name")
	_, err = ledger.Claim(context.Background(), "notification-email", uuid.Nil)
	assert.ErrorContains(t, err, "event id")

	store.err = errors.New("redis down")
	_, err = ledger.Claim(context.Background(), "notification-email", uuid.New())
	assert.ErrorContains(t, err, "redis down")
}

func TestNewLedgerValidation(t *testing.T) {
	_, err := NewLedger(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewLedger(newMemoryStore(), -time.Second)
	assert.Error(t, err)
}
