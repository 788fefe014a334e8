package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// VendorProduct is a sellable product combining a base product and a design.
type VendorProduct struct {
	ID                   uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID                   `gorm:"column:vendor_id;type:uuid;not null;index"`
	BaseProductID        uuid.UUID                   `gorm:"column:base_product_id;type:uuid;not null"`
	DesignID             *uuid.UUID                  `gorm:"column:design_id;type:uuid;index"`
	DesignURL            *string                     `gorm:"column:design_url"`
	Name                 string                      `gorm:"column:name;not null"`
	Price                decimal.Decimal             `gorm:"column:price;type:numeric(12,2);not null"`
	Status               enums.VendorProductStatus   `gorm:"column:status;type:vendor_product_status;not null;default:pending"`
	IsValidated          bool                        `gorm:"column:is_validated;not null;default:false"`
	PostValidationAction *enums.PostValidationAction `gorm:"column:post_validation_action;type:post_validation_action"`
	ValidatedAt          *time.Time                  `gorm:"column:validated_at"`
	ValidatedByKind      *enums.ValidatorKind        `gorm:"column:validated_by_kind;type:validator_kind"`
	ValidatedBy          *uuid.UUID                  `gorm:"column:validated_by;type:uuid"`
	CreatedAt            time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            gorm.DeletedAt              `gorm:"column:deleted_at;index"`
}

func (p *VendorProduct) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// IsEligibleForValidation reports whether a design decision may still move the product.
func (p VendorProduct) IsEligibleForValidation() bool {
	return p.Status == enums.VendorProductStatusPending && !p.IsValidated
}
