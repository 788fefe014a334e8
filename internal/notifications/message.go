package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

const (
	TemplateProductAutoPublished  = "vendor-product-auto-published"
	TemplateProductValidatedDraft = "vendor-product-validated-draft"
	TemplateDesignApproved        = "design-approved"
	TemplateDesignRejected        = "design-rejected"
)

// Message is a single templated notification addressed to one recipient.
type Message struct {
	To       string
	Subject  string
	Template string
	Context  map[string]any

	RecipientID   *uuid.UUID
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
}

// Dispatcher delivers notifications. Callers treat failures as non-fatal.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, msg Message) error

func (f DispatcherFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("recipient required")
	}
	if strings.TrimSpace(m.Template) == "" {
		return fmt.Errorf("template required")
	}
	return nil
}

// ProductValidated builds the vendor notification for a product moved out of
// pending. Published products use the auto-published template.
func ProductValidated(vendor models.User, product models.VendorProduct, designName string) Message {
	template := TemplateProductValidatedDraft
	subject := fmt.Sprintf("%s is validated and saved as a draft", product.Name)
	if product.Status == enums.VendorProductStatusPublished {
		template = TemplateProductAutoPublished
		subject = fmt.Sprintf("%s is now live", product.Name)
	}
	vendorID := vendor.ID
	return Message{
		To:       vendor.Email,
		Subject:  subject,
		Template: template,
		Context: map[string]any{
			"vendorName":  vendor.FullName(),
			"productId":   product.ID.String(),
			"productName": product.Name,
			"designName":  designName,
			"status":      product.Status.String(),
		},
		RecipientID:   &vendorID,
		AggregateType: enums.AggregateVendorProduct,
		AggregateID:   product.ID,
	}
}

// DesignDecision builds the vendor notification for an approved or rejected design.
func DesignDecision(vendor models.User, design models.Design) Message {
	vendorID := vendor.ID
	msg := Message{
		To:       vendor.Email,
		Template: TemplateDesignApproved,
		Subject:  fmt.Sprintf("Your design %s was approved", design.Name),
		Context: map[string]any{
			"vendorName": vendor.FullName(),
			"designId":   design.ID.String(),
			"designName": design.Name,
		},
		RecipientID:   &vendorID,
		AggregateType: enums.AggregateDesign,
		AggregateID:   design.ID,
	}
	if design.ValidationState() == enums.DesignStateRejected {
		msg.Template = TemplateDesignRejected
		msg.Subject = fmt.Sprintf("Your design %s was not approved", design.Name)
		if design.RejectionReason != nil {
			msg.Context["rejectionReason"] = *design.RejectionReason
		}
	}
	return msg
}
