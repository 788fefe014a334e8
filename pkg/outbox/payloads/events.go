package payloads

import "github.com/google/uuid"

// NotificationRequestedEvent asks the notification worker to deliver an email.
// Context is rendered by the provider template named by Template.
type NotificationRequestedEvent struct {
	RecipientID *uuid.UUID     `json:"recipient_id,omitempty"`
	To          string         `json:"to"`
	Subject     string         `json:"subject"`
	Template    string         `json:"template"`
	Context     map[string]any `json:"context,omitempty"`
}
