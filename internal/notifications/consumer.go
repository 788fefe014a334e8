package notifications

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/outbox/idempotency"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
	"github.com/printforge/printforge-backend/pkg/outbox/registry"
	"github.com/printforge/printforge-backend/pkg/sendgrid"
)

const emailConsumerName = "notification-email"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type emailSender interface {
	Send(ctx context.Context, email sendgrid.Email) error
}

type templateLookup interface {
	TemplateID(name string) (string, bool)
}

// EmailConsumer turns notification_requested events into SendGrid emails.
type EmailConsumer struct {
	subscription receiver
	decoders     *registry.Decoders
	ledger       *idempotency.Ledger
	sender       emailSender
	templates    templateLookup
	logg         *logger.Logger
}

// NewEmailConsumer builds the email consumer.
func NewEmailConsumer(subscription receiver, ledger *idempotency.Ledger, sender emailSender, templates templateLookup, logg *logger.Logger) (*EmailConsumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("idempotency ledger required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if templates == nil {
		return nil, fmt.Errorf("template lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &EmailConsumer{
		subscription: subscription,
		decoders:     registry.NewNotificationDecoders(),
		ledger:       ledger,
		sender:       sender,
		templates:    templates,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *EmailConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if result := c.process(ctx, msg); result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *EmailConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	envelope, err := outbox.ParseEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	decoded, err := c.decoders.Decode(enums.EventNotificationRequested, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}
	payload, ok := decoded.(*payloads.NotificationRequestedEvent)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", fmt.Errorf("got %T", decoded))
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "template", payload.Template)

	templateID, ok := c.templates.TemplateID(payload.Template)
	if !ok {
		c.logg.Warn(logCtx, "no sendgrid template configured, dropping notification")
		return processResult{ack: true}
	}

	first, err := c.ledger.Claim(ctx, emailConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	err = c.sender.Send(ctx, sendgrid.Email{
		To:         payload.To,
		Subject:    payload.Subject,
		TemplateID: templateID,
		Data:       payload.Context,
	})
	if err != nil {
		var statusErr *sendgrid.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			c.logg.Error(logCtx, "sendgrid rejected notification", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "notification delivery failed", err)
		if delErr := c.ledger.Release(ctx, emailConsumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification email sent")
	return processResult{ack: true}
}
