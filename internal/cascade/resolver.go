package cascade

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/db/models"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

// Resolver locates the vendor products affected by a design decision.
// Passes run in priority order and the first non-empty one wins: link rows,
// then direct design_id references, then the legacy URL match.
type Resolver struct {
	repo           *Repository
	tx             db.TxRunner
	logg           *logger.Logger
	legacyFallback bool
}

// NewResolver wires a resolver. legacyFallback enables the URL pass.
func NewResolver(repo *Repository, tx db.TxRunner, logg *logger.Logger, legacyFallback bool) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("cascade repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, tx: tx, logg: logg, legacyFallback: legacyFallback}, nil
}

// Resolve loads the design and returns its affected products ordered by
// created_at then id. Missing or deleted designs are NotFound.
func (r *Resolver) Resolve(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	design, err := r.repo.FindDesign(ctx, designID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	return r.ResolveDesign(ctx, design)
}

// ResolveDesign runs the passes for an already loaded design.
func (r *Resolver) ResolveDesign(ctx context.Context, design *models.Design) ([]models.VendorProduct, error) {
	if design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	ctx = r.logg.WithField(ctx, "design_id", design.ID.String())

	linked, err := r.repo.ProductsLinkedTo(ctx, design.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve linked products")
	}
	if len(linked) > 0 {
		return normalize(linked), nil
	}

	direct, err := r.repo.ProductsByDesignID(ctx, design.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve products by design id")
	}
	if len(direct) > 0 {
		return normalize(direct), nil
	}

	if !r.legacyFallback || design.ImageURL == "" {
		return []models.VendorProduct{}, nil
	}

	legacy, err := r.repo.ProductsByLegacyURL(ctx, design.VendorID, design.ImageURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve products by legacy url")
	}
	for i := range legacy {
		if err := r.heal(ctx, design.ID, &legacy[i]); err != nil {
			logCtx := r.logg.WithField(ctx, "vendor_product_id", legacy[i].ID.String())
			r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "legacy link self-heal failed")
		}
	}
	if len(legacy) > 0 {
		r.logg.Info(r.logg.WithField(ctx, "count", len(legacy)), "resolved products through legacy url match")
	}
	return normalize(legacy), nil
}

// heal attaches a legacy product to the design in its own transaction.
func (r *Resolver) heal(ctx context.Context, designID uuid.UUID, product *models.VendorProduct) error {
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return attach(ctx, r.repo.WithTx(tx), designID, product.ID)
	})
	if err != nil {
		return err
	}
	if product.DesignID == nil {
		id := designID
		product.DesignID = &id
	}
	return nil
}

// attach backfills design_id when empty and inserts the link row. A
// concurrent insert of the same link is success.
func attach(ctx context.Context, repo *Repository, designID, productID uuid.UUID) error {
	if _, err := repo.BackfillDesignID(ctx, productID, designID); err != nil {
		return fmt.Errorf("backfill design id: %w", err)
	}
	if err := repo.InsertLink(ctx, designID, productID); err != nil && !db.IsUniqueViolation(err, "") {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func normalize(products []models.VendorProduct) []models.VendorProduct {
	seen := make(map[uuid.UUID]struct{}, len(products))
	out := make([]models.VendorProduct, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
