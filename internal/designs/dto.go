package designs

import (
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

// DesignDTO is the transport shape of a design.
type DesignDTO struct {
	ID              uuid.UUID                   `json:"id"`
	VendorID        uuid.UUID                   `json:"vendor_id"`
	Name            string                      `json:"name"`
	ImageURL        string                      `json:"image_url"`
	State           enums.DesignValidationState `json:"state"`
	IsValidated     bool                        `json:"is_validated"`
	ValidatedAt     *time.Time                  `json:"validated_at,omitempty"`
	ValidatedBy     *uuid.UUID                  `json:"validated_by,omitempty"`
	RejectionReason *string                     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// CreateDesignInput carries the vendor-supplied design fields.
type CreateDesignInput struct {
	Name     string
	ImageURL string
}

// ValidateDesignInput is an admin decision on a pending design.
type ValidateDesignInput struct {
	Action          enums.ValidationAction
	RejectionReason *string
}

// ValidationOutcome reports the design's new state and the products the
// decision moved out of pending.
type ValidationOutcome struct {
	Design            DesignDTO       `json:"design"`
	UpdatedCount      int             `json:"updated_count"`
	UpdatedProductIDs []uuid.UUID     `json:"updated_product_ids"`
	Cascade           *cascade.Result `json:"cascade"`
	// CascadeDeferred is set when the cascade could not run; the global sweep
	// picks the products up later.
	CascadeDeferred bool `json:"cascade_deferred,omitempty"`
}

func FromModel(d *models.Design) DesignDTO {
	return DesignDTO{
		ID:              d.ID,
		VendorID:        d.VendorID,
		Name:            d.Name,
		ImageURL:        d.ImageURL,
		State:           d.ValidationState(),
		IsValidated:     d.IsValidated,
		ValidatedAt:     d.ValidatedAt,
		ValidatedBy:     d.ValidatedBy,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
