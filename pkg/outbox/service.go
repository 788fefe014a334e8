package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
)

// EnvelopeVersion is stamped on envelopes that do not ask for another one.
const EnvelopeVersion = 1

// DomainEvent is what producers hand to Emit. Data is any JSON-encodable
// payload registered for EventType.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	var errs []error
	if !e.EventType.IsValid() {
		errs = append(errs, fmt.Errorf("unsupported event type %q", e.EventType))
	}
	if !e.AggregateType.IsValid() {
		errs = append(errs, fmt.Errorf("unsupported aggregate type %q", e.AggregateType))
	}
	if e.AggregateID == uuid.Nil {
		errs = append(errs, errors.New("aggregate id required"))
	}
	return errors.Join(errs...)
}

// envelope fills the defaults and wraps the encoded data.
func (e DomainEvent) envelope() (PayloadEnvelope, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("marshal %s data: %w", e.EventType, err)
	}
	env := PayloadEnvelope{
		Version:    e.Version,
		EventID:    uuid.NewString(),
		OccurredAt: e.OccurredAt.UTC(),
		Actor:      e.Actor,
		Data:       data,
	}
	if env.Version == 0 {
		env.Version = EnvelopeVersion
	}
	if e.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	return env, nil
}

// Service appends events to the outbox on the caller's transaction, so an
// event exists exactly when the change it describes commits.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit returns the envelope's event id, which consumers use for dedupe.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) (string, error) {
	if tx == nil {
		return "", errors.New("outbox emit requires a transaction")
	}
	if err := event.validate(); err != nil {
		return "", err
	}
	env, err := event.envelope()
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	err = s.repo.Insert(tx, models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       body,
	})
	if err != nil {
		return "", fmt.Errorf("insert outbox row: %w", err)
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       env.EventID,
			"event_type":     event.EventType.String(),
			"aggregate_type": event.AggregateType.String(),
			"aggregate_id":   event.AggregateID.String(),
		}), "outbox event queued")
	}
	return env.EventID, nil
}
