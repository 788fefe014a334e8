package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/outbox/payloads"
)

func TestDecodersAreKeyedByVersion(t *testing.T) {
	d := NewDecoders().Add(enums.EventNotificationRequested, 2, JSON[map[string]string]())

	out, err := d.Decode(enums.EventNotificationRequested, 2, json.RawMessage(`{"template":"design-approved"}`))
	require.NoError(t, err)
	m, ok := out.(*map[string]string)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "design-approved", (*m)["template"])

	_, err = d.Decode(enums.EventNotificationRequested, 1, json.RawMessage(`{}`))
	assert.EqualError(t, err, "no decoder for notification_requested v1")
}

func TestNotificationDecoders(t *testing.T) {
	d := NewNotificationDecoders()

	out, err := d.Decode(enums.EventNotificationRequested, 1,
		json.RawMessage(`{"to":"vendor@example.com","subject":"Live","template":"vendor-product-auto-published","context":{"productName":"Tee"}}`))
	require.NoError(t, err)
	event, ok := out.(*payloads.NotificationRequestedEvent)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "vendor-product-auto-published", event.Template)
	assert.Equal(t, "Tee", event.Context["productName"])

	_, err = d.Decode(enums.EventNotificationRequested, 1, json.RawMessage(`[`))
	assert.Error(t, err)
}
