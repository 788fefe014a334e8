package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/printforge/printforge-backend/pkg/config"
)

// Email is a dynamic-template message addressed to a single recipient.
type Email struct {
	To         string
	ToName     string
	Subject    string
	TemplateID string
	Data       map[string]any
}

type mailer interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client delivers transactional email through the SendGrid v3 API.
type Client struct {
	mailer mailer
	from   *mail.Email
}

// StatusError reports a non-2xx response from the SendGrid API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid responded %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Retryable reports whether the request may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// New builds a client from configuration.
func New(cfg config.SendgridConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	return &Client{
		mailer: sg.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}, nil
}

// Send delivers the email and maps non-2xx responses to *StatusError.
func (c *Client) Send(ctx context.Context, email Email) error {
	message, err := c.build(email)
	if err != nil {
		return err
	}
	resp, err := c.mailer.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp == nil {
		return errors.New("sendgrid returned no response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}

func (c *Client) build(email Email) (*mail.SGMailV3, error) {
	if strings.TrimSpace(email.To) == "" {
		return nil, errors.New("recipient is required")
	}
	if strings.TrimSpace(email.TemplateID) == "" {
		return nil, errors.New("template id is required")
	}

	message := mail.NewV3Mail()
	message.SetFrom(c.from)
	message.SetTemplateID(email.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(email.ToName, email.To))
	p.Subject = email.Subject
	for key, value := range email.Data {
		p.SetDynamicTemplateData(key, value)
	}
	if email.Subject != "" {
		p.SetDynamicTemplateData("subject", email.Subject)
	}
	message.AddPersonalizations(p)
	return message, nil
}
