package vendorproducts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type baseProductLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.BaseProduct, error)
}

type designLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
}

// Service exposes vendor operations on their products.
type Service interface {
	CreateVendorProduct(ctx context.Context, vendorID uuid.UUID, input CreateVendorProductInput) (*VendorProductDTO, error)
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]VendorProductDTO, error)
	UpdatePostValidationAction(ctx context.Context, vendorID, productID uuid.UUID, action *enums.PostValidationAction) (*VendorProductDTO, error)
	DeleteVendorProduct(ctx context.Context, vendorID, productID uuid.UUID) error
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Repo         *Repository
	Tx           db.TxRunner
	Users        users.Finder
	BaseProducts baseProductLoader
	Designs      designLoader
	Logger       *logger.Logger
}

type service struct {
	repo         *Repository
	tx           db.TxRunner
	users        users.Finder
	baseProducts baseProductLoader
	designs      designLoader
	logg         *logger.Logger
}

// NewService wires vendor product dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("vendor product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.BaseProducts == nil {
		return nil, fmt.Errorf("base product loader required")
	}
	if params.Designs == nil {
		return nil, fmt.Errorf("design loader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		users:        params.Users,
		baseProducts: params.BaseProducts,
		designs:      params.Designs,
		logg:         params.Logger,
	}, nil
}

// CreateVendorProduct creates a pending product on one of the vendor's designs
// and links the two in the same transaction.
func (s *service) CreateVendorProduct(ctx context.Context, vendorID uuid.UUID, input CreateVendorProductInput) (*VendorProductDTO, error) {
	if _, err := users.RequireActiveRole(ctx, s.users, vendorID, enums.UserRoleVendor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PostValidationAction != nil && !input.PostValidationAction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "post_validation_action must be auto_publish or to_draft")
	}

	base, err := s.baseProducts.FindActiveByID(ctx, input.BaseProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "base product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load base product")
	}

	design, err := s.designs.FindByID(ctx, input.DesignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	if design.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another vendor")
	}
	if design.ValidationState() == enums.DesignStateRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design was rejected")
	}

	if input.Price.LessThan(base.BasePrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be at least the base price").
			WithDetails(map[string]any{"base_price": base.BasePrice.StringFixed(2)})
	}

	designID := design.ID
	product := &models.VendorProduct{
		VendorID:             vendorID,
		BaseProductID:        base.ID,
		DesignID:             &designID,
		Name:                 name,
		Price:                input.Price,
		Status:               enums.VendorProductStatusPending,
		PostValidationAction: input.PostValidationAction,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor product")
		}
		if err := repo.InsertLink(ctx, designID, product.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link vendor product to design")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"vendor_product_id": product.ID.String(),
		"design_id":         designID.String(),
	})
	s.logg.Info(logCtx, "vendor product created")

	dto := FromModel(product)
	return &dto, nil
}

func (s *service) ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]VendorProductDTO, error) {
	if _, err := users.RequireActiveRole(ctx, s.users, vendorID, enums.UserRoleVendor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor products")
	}
	out := make([]VendorProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

// UpdatePostValidationAction sets or clears the action while the product is
// still pending. A nil action falls back to draft on validation.
func (s *service) UpdatePostValidationAction(ctx context.Context, vendorID, productID uuid.UUID, action *enums.PostValidationAction) (*VendorProductDTO, error) {
	if action != nil && !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "post_validation_action must be auto_publish or to_draft")
	}
	product, err := s.owned(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdatePostValidationAction(ctx, productID, action)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post validation action")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vendor product is no longer pending validation")
	}
	product.PostValidationAction = action
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) DeleteVendorProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	if _, err := s.owned(ctx, vendorID, productID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SoftDelete(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor product")
		}
		if err := repo.DeleteLinks(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor product links")
		}
		return nil
	})
}

func (s *service) owned(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error) {
	if _, err := users.RequireActiveRole(ctx, s.users, vendorID, enums.UserRoleVendor); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor product")
	}
	if product.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor product belongs to another vendor")
	}
	return product, nil
}
