package registry

import (
	"encoding/json"
	"fmt"

	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
)

// Decode turns one envelope's data into a typed payload.
type Decode func(data json.RawMessage) (any, error)

type version struct {
	eventType enums.OutboxEventType
	n         int
}

// Decoders is the consumer-side lookup of payload decoders by event type and
// envelope version. It is built once and read concurrently afterwards.
type Decoders struct {
	byVersion map[version]Decode
}

func NewDecoders() *Decoders {
	return &Decoders{byVersion: map[version]Decode{}}
}

// NewNotificationDecoders understands every payload on the notification topic.
func NewNotificationDecoders() *Decoders {
	d := NewDecoders()
	d.Add(enums.EventNotificationRequested, 1, JSON[payloads.NotificationRequestedEvent]())
	return d
}

// Add registers fn and returns d for chaining. A later Add for the same
// type and version replaces the earlier one.
func (d *Decoders) Add(eventType enums.OutboxEventType, n int, fn Decode) *Decoders {
	d.byVersion[version{eventType, n}] = fn
	return d
}

func (d *Decoders) Decode(eventType enums.OutboxEventType, n int, data json.RawMessage) (any, error) {
	fn, ok := d.byVersion[version{eventType, n}]
	if !ok {
		return nil, fmt.Errorf("no decoder for %s v%d", eventType, n)
	}
	return fn(data)
}

// JSON decodes into a fresh *T.
func JSON[T any]() Decode {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
