package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// Design is a vendor-uploaded artwork awaiting or holding an admin decision.
type Design struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID      `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name            string         `gorm:"column:name;not null"`
	ImageURL        string         `gorm:"column:image_url;not null"`
	IsValidated     bool           `gorm:"column:is_validated;not null;default:false"`
	ValidatedAt     *time.Time     `gorm:"column:validated_at"`
	ValidatedBy     *uuid.UUID     `gorm:"column:validated_by;type:uuid"`
	RejectionReason *string        `gorm:"column:rejection_reason"`
	IsPending       bool           `gorm:"column:is_pending;not null"`
	IsPublished     bool           `gorm:"column:is_published;not null;default:false"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (d *Design) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// ValidationState derives the admin decision from the validation columns.
// Combinations outside the three legal states report DesignStateInvalid.
func (d Design) ValidationState() enums.DesignValidationState {
	hasReason := d.RejectionReason != nil && strings.TrimSpace(*d.RejectionReason) != ""
	switch {
	case !d.IsValidated && d.ValidatedAt == nil && !hasReason:
		return enums.DesignStatePending
	case d.IsValidated && d.ValidatedAt != nil && !hasReason:
		return enums.DesignStateValidated
	case !d.IsValidated && d.ValidatedAt != nil && hasReason:
		return enums.DesignStateRejected
	default:
		return enums.DesignStateInvalid
	}
}
