package cascade

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// FailureReason classifies why a single product could not be updated.
type FailureReason string

const (
	ReasonAlreadyValidated FailureReason = "already_validated"
	ReasonNotFound         FailureReason = "not_found"
	ReasonStoreError       FailureReason = "store_error"
)

// Validator records who moved a product out of pending.
type Validator struct {
	Kind    enums.ValidatorKind
	AdminID *uuid.UUID
}

// AdminValidator attributes the change to an admin decision.
func AdminValidator(adminID uuid.UUID) Validator {
	return Validator{Kind: enums.ValidatorAdmin, AdminID: &adminID}
}

// SystemValidator attributes the change to the global sweep.
func SystemValidator() Validator {
	return Validator{Kind: enums.ValidatorSystem}
}

// UpdatedProduct is a product the cascade moved to its target status.
type UpdatedProduct struct {
	ID       uuid.UUID                 `json:"id"`
	VendorID uuid.UUID                 `json:"vendor_id"`
	Status   enums.VendorProductStatus `json:"status"`
}

// Failure is a product the cascade attempted but could not update.
type Failure struct {
	ProductID uuid.UUID     `json:"product_id"`
	Reason    FailureReason `json:"reason"`
	Err       error         `json:"-"`
}

// Result summarizes one cascade or sweep run.
type Result struct {
	Updated              []UpdatedProduct `json:"updated"`
	Failures             []Failure        `json:"failures"`
	Skipped              int              `json:"skipped"`
	NotificationFailures int              `json:"notification_failures"`
}

func newResult() *Result {
	return &Result{Updated: []UpdatedProduct{}, Failures: []Failure{}}
}

// UpdatedIDs lists the ids of updated products in processing order.
func (r *Result) UpdatedIDs() []uuid.UUID {
	if r == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(r.Updated))
	for _, p := range r.Updated {
		ids = append(ids, p.ID)
	}
	return ids
}

// UpdatedCount is the number of products moved out of pending.
func (r *Result) UpdatedCount() int {
	if r == nil {
		return 0
	}
	return len(r.Updated)
}

// Err combines the per-product failures, or returns nil when every attempt succeeded.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, f := range r.Failures {
		cause := f.Err
		if cause == nil {
			cause = fmt.Errorf("%s", f.Reason)
		}
		err = multierr.Append(err, fmt.Errorf("vendor product %s: %w", f.ProductID, cause))
	}
	return err
}
