package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
)

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (string, error)
}

// OutboxDispatcher queues notification_requested events for the email worker.
// Each Send commits its own outbox row so callers never hold a transaction
// open while notifying.
type OutboxDispatcher struct {
	tx     db.TxRunner
	outbox emitter
	logg   *logger.Logger
}

// NewOutboxDispatcher wires the dispatcher.
func NewOutboxDispatcher(tx db.TxRunner, outboxSvc emitter, logg *logger.Logger) (*OutboxDispatcher, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OutboxDispatcher{tx: tx, outbox: outboxSvc, logg: logg}, nil
}

func (d *OutboxDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	aggregateType := msg.AggregateType
	aggregateID := msg.AggregateID
	if aggregateType == "" || aggregateID == uuid.Nil {
		aggregateType = enums.AggregateNotification
		aggregateID = uuid.New()
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data: payloads.NotificationRequestedEvent{
			RecipientID: msg.RecipientID,
			To:          msg.To,
			Subject:     msg.Subject,
			Template:    msg.Template,
			Context:     msg.Context,
		},
	}

	var eventID string
	err := d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		eventID, err = d.outbox.Emit(ctx, tx, event)
		return err
	})
	if err != nil {
		return fmt.Errorf("queue %s notification: %w", msg.Template, err)
	}

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"event_id": eventID,
		"template": msg.Template,
	})
	d.logg.Debug(logCtx, "notification queued")
	return nil
}
