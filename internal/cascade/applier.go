package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
)

// ProductNotifier tells a vendor that one of their products left pending.
type ProductNotifier interface {
	NotifyProductValidated(ctx context.Context, product models.VendorProduct) error
}

// Applier moves eligible products to the status chosen by their
// post-validation action.
type Applier struct {
	repo     *Repository
	notifier ProductNotifier
	metrics  *metrics.CascadeMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewApplier wires an applier. metrics may be nil.
func NewApplier(repo *Repository, notifier ProductNotifier, cascadeMetrics *metrics.CascadeMetrics, logg *logger.Logger) (*Applier, error) {
	if repo == nil {
		return nil, fmt.Errorf("cascade repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("product notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Applier{
		repo:     repo,
		notifier: notifier,
		metrics:  cascadeMetrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Apply runs the decision over candidates. REJECT never touches products.
// Ineligible candidates are counted in Skipped; per-product errors are
// collected in the result and never abort the run.
func (a *Applier) Apply(ctx context.Context, candidates []models.VendorProduct, action enums.ValidationAction, validator Validator) *Result {
	result := newResult()
	if action != enums.ValidationActionValidate {
		return result
	}

	trigger := validator.Kind.String()
	for _, candidate := range candidates {
		if !candidate.IsEligibleForValidation() {
			result.Skipped++
			continue
		}
		a.applyOne(ctx, candidate, validator, trigger, result)
	}

	if result.UpdatedCount() > 0 || len(result.Failures) > 0 {
		logCtx := a.logg.WithFields(ctx, map[string]any{
			"trigger":  trigger,
			"updated":  result.UpdatedCount(),
			"failed":   len(result.Failures),
			"skipped":  result.Skipped,
			"notified": result.UpdatedCount() - result.NotificationFailures,
		})
		a.logg.Info(logCtx, "validation cascade applied")
	}
	return result
}

func (a *Applier) applyOne(ctx context.Context, product models.VendorProduct, validator Validator, trigger string, result *Result) {
	logCtx := a.logg.WithField(ctx, "vendor_product_id", product.ID.String())
	status := enums.TargetStatus(product.PostValidationAction)
	at := a.now()

	affected, err := a.repo.MarkValidated(ctx, product.ID, status, validator, at)
	if err != nil {
		a.fail(logCtx, result, product, ReasonStoreError, err, trigger)
		return
	}
	if affected == 0 {
		reason, cause := a.classifyMiss(ctx, product)
		a.fail(logCtx, result, product, reason, cause, trigger)
		return
	}

	product.Status = status
	product.IsValidated = true
	product.ValidatedAt = &at
	kind := validator.Kind
	product.ValidatedByKind = &kind
	product.ValidatedBy = validator.AdminID

	result.Updated = append(result.Updated, UpdatedProduct{
		ID:       product.ID,
		VendorID: product.VendorID,
		Status:   status,
	})
	a.metrics.IncUpdated(trigger, status.String())

	if err := a.notifier.NotifyProductValidated(ctx, product); err != nil {
		result.NotificationFailures++
		a.metrics.IncNotificationFailed(trigger)
		a.logg.Error(logCtx, "product validation notification failed", err)
	}
}

// classifyMiss explains a conditional update that matched no row.
func (a *Applier) classifyMiss(ctx context.Context, product models.VendorProduct) (FailureReason, error) {
	current, err := a.repo.FindProductUnscoped(ctx, product.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ReasonNotFound, errors.New("vendor product no longer exists")
	case err != nil:
		return ReasonStoreError, err
	case current.DeletedAt.Valid:
		return ReasonNotFound, errors.New("vendor product was deleted")
	default:
		return ReasonAlreadyValidated, fmt.Errorf("vendor product already %s", current.Status)
	}
}

func (a *Applier) fail(ctx context.Context, result *Result, product models.VendorProduct, reason FailureReason, err error, trigger string) {
	result.Failures = append(result.Failures, Failure{ProductID: product.ID, Reason: reason, Err: err})
	a.metrics.IncFailed(trigger, string(reason))
	if reason == ReasonStoreError {
		a.logg.Error(ctx, "vendor product validation update failed", err)
		return
	}
	a.logg.Warn(a.logg.WithField(ctx, "reason", string(reason)), "vendor product changed before validation update")
}
