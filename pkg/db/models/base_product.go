package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BaseProduct is an admin-owned blank that vendors print designs onto.
type BaseProduct struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *BaseProduct) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
