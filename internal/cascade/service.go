package cascade

import (
	"context"
	"fmt"

	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
)

// Service propagates design decisions to vendor products.
type Service interface {
	// CascadeDesign resolves the design's products and validates the eligible ones.
	CascadeDesign(ctx context.Context, design *models.Design, validator Validator) (*Result, error)
	AutoValidateAllEligibleProducts(ctx context.Context) (*Result, error)
	GetAutoValidationStats(ctx context.Context) (*Stats, error)
	BackfillLinks(ctx context.Context) (*BackfillResult, error)
}

// ServiceParams bundles the dependencies required to build the cascade service.
type ServiceParams struct {
	Repo              *Repository
	Tx                db.TxRunner
	Notifier          ProductNotifier
	Metrics           *metrics.CascadeMetrics
	Logger            *logger.Logger
	LegacyURLFallback bool
}

type service struct {
	repo     *Repository
	tx       db.TxRunner
	resolver *Resolver
	applier  *Applier
	logg     *logger.Logger
}

// NewService wires the resolver and applier behind the cascade operations.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cascade repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	resolver, err := NewResolver(params.Repo, params.Tx, params.Logger, params.LegacyURLFallback)
	if err != nil {
		return nil, err
	}
	applier, err := NewApplier(params.Repo, params.Notifier, params.Metrics, params.Logger)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		resolver: resolver,
		applier:  applier,
		logg:     params.Logger,
	}, nil
}

func (s *service) CascadeDesign(ctx context.Context, design *models.Design, validator Validator) (*Result, error) {
	if design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	if err := validateValidator(validator); err != nil {
		return nil, err
	}
	if design.ValidationState() != enums.DesignStateValidated {
		return newResult(), nil
	}

	candidates, err := s.resolver.ResolveDesign(ctx, design)
	if err != nil {
		return nil, err
	}
	return s.applier.Apply(ctx, candidates, enums.ValidationActionValidate, validator), nil
}

func validateValidator(v Validator) error {
	switch v.Kind {
	case enums.ValidatorAdmin:
		if v.AdminID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "admin validator requires an admin id")
		}
	case enums.ValidatorSystem:
		if v.AdminID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "system validator cannot carry an admin id")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown validator kind")
	}
	return nil
}

func wrapStore(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
