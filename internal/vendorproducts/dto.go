package vendorproducts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

// VendorProductDTO is the transport shape of a vendor product.
type VendorProductDTO struct {
	ID                   uuid.UUID                   `json:"id"`
	VendorID             uuid.UUID                   `json:"vendor_id"`
	BaseProductID        uuid.UUID                   `json:"base_product_id"`
	DesignID             *uuid.UUID                  `json:"design_id,omitempty"`
	Name                 string                      `json:"name"`
	Price                decimal.Decimal             `json:"price"`
	Status               enums.VendorProductStatus   `json:"status"`
	IsValidated          bool                        `json:"is_validated"`
	PostValidationAction *enums.PostValidationAction `json:"post_validation_action,omitempty"`
	ValidatedAt          *time.Time                  `json:"validated_at,omitempty"`
	ValidatedByKind      *enums.ValidatorKind        `json:"validated_by_kind,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// CreateVendorProductInput carries the vendor-supplied product fields.
type CreateVendorProductInput struct {
	BaseProductID        uuid.UUID
	DesignID             uuid.UUID
	Name                 string
	Price                decimal.Decimal
	PostValidationAction *enums.PostValidationAction
}

func FromModel(p *models.VendorProduct) VendorProductDTO {
	return VendorProductDTO{
		ID:                   p.ID,
		VendorID:             p.VendorID,
		BaseProductID:        p.BaseProductID,
		DesignID:             p.DesignID,
		Name:                 p.Name,
		Price:                p.Price,
		Status:               p.Status,
		IsValidated:          p.IsValidated,
		PostValidationAction: p.PostValidationAction,
		ValidatedAt:          p.ValidatedAt,
		ValidatedByKind:      p.ValidatedByKind,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
