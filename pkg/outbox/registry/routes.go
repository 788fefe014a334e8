package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
)

// Route says which topic an event type is published to, which aggregates
// may emit it and what its payload decodes into.
type Route struct {
	EventType  enums.OutboxEventType
	Topic      string
	Aggregates []enums.OutboxAggregateType
	NewPayload func() any
}

// Resolved is an outbox row checked against its route.
type Resolved struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	Payload  any
}

type Routes struct {
	byType map[enums.OutboxEventType]Route
}

func NewRoutes(cfg config.PubSubConfig) (*Routes, error) {
	if cfg.NotificationTopic == "" {
		return nil, errors.New("notification topic is required")
	}
	r := &Routes{byType: map[enums.OutboxEventType]Route{}}
	r.add(Route{
		EventType:  enums.EventNotificationRequested,
		Topic:      cfg.NotificationTopic,
		Aggregates: []enums.OutboxAggregateType{enums.AggregateDesign, enums.AggregateVendorProduct, enums.AggregateNotification},
		NewPayload: func() any { return new(payloads.NotificationRequestedEvent) },
	})
	return r, nil
}

func (r *Routes) add(route Route) {
	r.byType[route.EventType] = route
}

// Resolve decodes the row's envelope and payload. Every failure is
// permanent: the row's bytes will not change between attempts.
func (r *Routes) Resolve(event models.OutboxEvent) (*Resolved, error) {
	route, ok := r.byType[event.EventType]
	switch {
	case !ok:
		return nil, Permanent(fmt.Errorf("no route for event type %q", event.EventType))
	case !slices.Contains(route.Aggregates, event.AggregateType):
		return nil, Permanent(fmt.Errorf("aggregate %q may not emit %q", event.AggregateType, event.EventType))
	case event.AggregateID == uuid.Nil:
		return nil, Permanent(errors.New("aggregate id missing"))
	}

	envelope, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode envelope: %w", err))
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, Permanent(fmt.Errorf("%s envelope carries no data", event.EventType))
	}

	payload := route.NewPayload()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, Permanent(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &Resolved{Route: route, Envelope: envelope, Payload: payload}, nil
}
