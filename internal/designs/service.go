package designs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/internal/notifications"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/pagination"
)

// Service exposes vendor and admin operations on designs.
type Service interface {
	CreateDesign(ctx context.Context, vendorID uuid.UUID, input CreateDesignInput) (*DesignDTO, error)
	GetDesign(ctx context.Context, vendorID, id uuid.UUID) (*DesignDTO, error)
	ListPendingDesigns(ctx context.Context, adminID uuid.UUID, page pagination.Params) (*pagination.Page[DesignDTO], error)
	DeleteDesign(ctx context.Context, vendorID, designID uuid.UUID) error
	ValidateDesign(ctx context.Context, designID, adminID uuid.UUID, input ValidateDesignInput) (*ValidationOutcome, error)
}

// ServiceParams bundles the dependencies required to build the design service.
type ServiceParams struct {
	Repo       *Repository
	Tx         db.TxRunner
	Users      users.Finder
	Cascade    cascade.Service
	Dispatcher notifications.Dispatcher
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	tx         db.TxRunner
	users      users.Finder
	cascade    cascade.Service
	dispatcher notifications.Dispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires design dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("design repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Cascade == nil {
		return nil, fmt.Errorf("cascade service required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		users:      params.Users,
		cascade:    params.Cascade,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateDesign(ctx context.Context, vendorID uuid.UUID, input CreateDesignInput) (*DesignDTO, error) {
	if _, err := users.RequireActiveRole(ctx, s.users, vendorID, enums.UserRoleVendor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	imageURL := strings.TrimSpace(input.ImageURL)
	if parsed, err := url.ParseRequestURI(imageURL); err != nil || parsed.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image_url must be an absolute url")
	}

	design := &models.Design{
		VendorID:  vendorID,
		Name:      name,
		ImageURL:  imageURL,
		IsPending: true,
	}
	if err := s.repo.Create(ctx, design); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create design")
	}
	dto := FromModel(design)
	return &dto, nil
}

// GetDesign reports a design owned by another vendor as not found.
func (s *service) GetDesign(ctx context.Context, vendorID, id uuid.UUID) (*DesignDTO, error) {
	design, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if design.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	dto := FromModel(design)
	return &dto, nil
}

func (s *service) ListPendingDesigns(ctx context.Context, adminID uuid.UUID, page pagination.Params) (*pagination.Page[DesignDTO], error) {
	if _, err := users.RequireActiveRole(ctx, s.users, adminID, enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	after, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPending(ctx, after, pagination.LimitWithBuffer(page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending designs")
	}
	out := make([]DesignDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	result := pagination.Trim(out, page.Limit, func(d DesignDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	})
	return &result, nil
}

func (s *service) DeleteDesign(ctx context.Context, vendorID, designID uuid.UUID) error {
	if _, err := users.RequireActiveRole(ctx, s.users, vendorID, enums.UserRoleVendor); err != nil {
		return err
	}
	design, err := s.load(ctx, designID)
	if err != nil {
		return err
	}
	if design.VendorID != vendorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another vendor")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SoftDelete(ctx, designID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete design")
		}
		if _, err := repo.DeleteLinks(ctx, designID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete design links")
		}
		return nil
	})
}

// ValidateDesign records an admin decision on a pending design, notifies the
// vendor and, on approval, cascades the decision to the design's products.
func (s *service) ValidateDesign(ctx context.Context, designID, adminID uuid.UUID, input ValidateDesignInput) (*ValidationOutcome, error) {
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be VALIDATE or REJECT")
	}
	if _, err := users.RequireActiveRole(ctx, s.users, adminID, enums.UserRoleAdmin); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"design_id": designID.String(),
		"admin_id":  adminID.String(),
		"action":    input.Action.String(),
	})

	design, err := s.load(ctx, designID)
	if err != nil {
		return nil, err
	}
	if state := design.ValidationState(); state != enums.DesignStatePending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("design is %s, not pending", state)).
			WithDetails(map[string]any{"state": state})
	}

	d := decision{adminID: adminID, at: s.now()}
	switch input.Action {
	case enums.ValidationActionValidate:
		d.validated = true
	case enums.ValidationActionReject:
		if input.RejectionReason == nil || strings.TrimSpace(*input.RejectionReason) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection_reason is required to reject a design")
		}
		reason := strings.TrimSpace(*input.RejectionReason)
		d.rejectionReason = &reason
	}

	affected, err := s.repo.RecordDecision(ctx, designID, d)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record design decision")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design was decided concurrently")
	}

	design.IsValidated = d.validated
	design.IsPending = false
	design.ValidatedAt = &d.at
	design.ValidatedBy = &d.adminID
	design.RejectionReason = d.rejectionReason
	design.UpdatedAt = d.at
	s.logg.Info(ctx, "design decision recorded")

	s.notifyVendor(ctx, design)

	outcome := &ValidationOutcome{Design: FromModel(design), UpdatedProductIDs: []uuid.UUID{}}
	if input.Action != enums.ValidationActionValidate {
		return outcome, nil
	}

	result, err := s.cascade.CascadeDesign(ctx, design, cascade.AdminValidator(adminID))
	if err != nil {
		s.logg.Error(ctx, "design cascade failed, deferring to global sweep", err)
		outcome.CascadeDeferred = true
		return outcome, nil
	}
	if failErr := result.Err(); failErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", failErr.Error()), "design cascade finished with failures")
	}
	outcome.Cascade = result
	outcome.UpdatedCount = result.UpdatedCount()
	outcome.UpdatedProductIDs = result.UpdatedIDs()
	return outcome, nil
}

func (s *service) notifyVendor(ctx context.Context, design *models.Design) {
	vendor, err := s.users.FindByID(ctx, design.VendorID)
	if err != nil {
		s.logg.Error(ctx, "load design vendor for notification", err)
		return
	}
	if err := s.dispatcher.Send(ctx, notifications.DesignDecision(*vendor, *design)); err != nil {
		s.logg.Error(ctx, "design decision notification failed", err)
	}
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	design, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	return design, nil
}
