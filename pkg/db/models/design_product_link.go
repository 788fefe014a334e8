package models

import (
	"time"

	"github.com/google/uuid"
)

// DesignProductLink is the explicit association between a design and the
// vendor products printed with it.
type DesignProductLink struct {
	DesignID        uuid.UUID `gorm:"column:design_id;type:uuid;primaryKey"`
	VendorProductID uuid.UUID `gorm:"column:vendor_product_id;type:uuid;primaryKey"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
