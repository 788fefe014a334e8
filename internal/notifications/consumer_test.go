package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/outbox/idempotency"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
	"github.com/printforge/printforge-backend/pkg/sendgrid"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "pf:idempotency:" + scope + ":" + id
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func (s *memoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

type recordingSender struct {
	sent []sendgrid.Email
	err  error
}

func (r *recordingSender) Send(_ context.Context, email sendgrid.Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, email)
	return nil
}

type staticTemplates map[string]string

func (s staticTemplates) TemplateID(name string) (string, bool) {
	id, ok := s[name]
	return id, ok
}

type noopReceiver struct{}

func (noopReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error {
	return nil
}

func newTestConsumer(t *testing.T, sender *recordingSender, store *memoryStore) *EmailConsumer {
	t.Helper()
	ledger, err := idempotency.NewLedger(store, time.Hour)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	consumer, err := NewEmailConsumer(noopReceiver{}, ledger, sender, staticTemplates{
		TemplateProductAutoPublished: "d-auto",
	}, logg)
	require.NoError(t, err)
	return consumer
}

func notificationMessage(t *testing.T, eventID string, payload payloads.NotificationRequestedEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       body,
		Attributes: map[string]string{"event_type": "notification_requested", "event_id": eventID},
	}
}

func TestEmailConsumer_SendsOnce(t *testing.T) {
	sender := &recordingSender{}
	consumer := newTestConsumer(t, sender, newMemoryStore())
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		To:       "vendor@example.com",
		Subject:  "Tee is now live",
		Template: TemplateProductAutoPublished,
		Context:  map[string]any{"productName": "Tee"},
	})

	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)

	assert.True(t, first.ack)
	assert.True(t, second.ack)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "d-auto", sender.sent[0].TemplateID)
	assert.Equal(t, "vendor@example.com", sender.sent[0].To)
	assert.Equal(t, "Tee", sender.sent[0].Data["productName"])
}

func TestEmailConsumer_SkipsOtherEvents(t *testing.T) {
	sender := &recordingSender{}
	consumer := newTestConsumer(t, sender, newMemoryStore())
	msg := &pubsub.Message{ID: "x", Attributes: map[string]string{"event_type": "order_created"}}

	result := consumer.process(context.Background(), msg)

	assert.True(t, result.ack)
	assert.Empty(t, sender.sent)
}

func TestEmailConsumer_UnknownTemplateIsDropped(t *testing.T) {
	sender := &recordingSender{}
	store := newMemoryStore()
	consumer := newTestConsumer(t, sender, store)
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		To:       "vendor@example.com",
		Template: TemplateDesignRejected,
	})

	result := consumer.process(context.Background(), msg)

	assert.True(t, result.ack)
	assert.Empty(t, sender.sent)
	assert.Zero(t, store.size())
}

func TestEmailConsumer_RetryableFailureReleasesKey(t *testing.T) {
	sender := &recordingSender{err: &sendgrid.StatusError{StatusCode: 503}}
	store := newMemoryStore()
	consumer := newTestConsumer(t, sender, store)
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		To:       "vendor@example.com",
		Template: TemplateProductAutoPublished,
	})

	result := consumer.process(context.Background(), msg)

	assert.True(t, result.nack)
	assert.Zero(t, store.size(), "key must be released so the retry is delivered")
}

func TestEmailConsumer_PermanentFailureAcks(t *testing.T) {
	sender := &recordingSender{err: &sendgrid.StatusError{StatusCode: 400, Body: "bad template"}}
	consumer := newTestConsumer(t, sender, newMemoryStore())
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		To:       "vendor@example.com",
		Template: TemplateProductAutoPublished,
	})

	result := consumer.process(context.Background(), msg)

	assert.True(t, result.ack)
}

func TestEmailConsumer_TransportErrorNacks(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection reset")}
	consumer := newTestConsumer(t, sender, newMemoryStore())
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		To:       "vendor@example.com",
		Template: TemplateProductAutoPublished,
	})

	assert.True(t, consumer.process(context.Background(), msg).nack)
}

func TestEmailConsumer_MalformedEnvelopeAcks(t *testing.T) {
	sender := &recordingSender{}
	consumer := newTestConsumer(t, sender, newMemoryStore())
	msg := &pubsub.Message{
		ID:         "bad",
		Data:       []byte("{not json"),
		Attributes: map[string]string{"event_type": "notification_requested"},
	}

	assert.True(t, consumer.process(context.Background(), msg).ack)
	assert.Empty(t, sender.sent)
}
