package cascade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

const sweepCandidatesQuery = `
SELECT vp.*
FROM vendor_products vp
WHERE vp.deleted_at IS NULL
  AND vp.status = ?
  AND vp.is_validated = ?
  AND (
    EXISTS (
      SELECT 1 FROM designs d
      WHERE d.id = vp.design_id
        AND d.is_validated = ?
        AND d.deleted_at IS NULL
    )
    OR EXISTS (
      SELECT 1 FROM design_product_links l
      JOIN designs d ON d.id = l.design_id
      WHERE l.vendor_product_id = vp.id
        AND d.is_validated = ?
        AND d.deleted_at IS NULL
    )
  )
ORDER BY vp.created_at, vp.id
`

const statsQuery = `
SELECT
  COALESCE(SUM(CASE WHEN is_validated = ? AND validated_by_kind = ? THEN 1 ELSE 0 END), 0) AS auto_validated,
  COALESCE(SUM(CASE WHEN is_validated = ? AND validated_by_kind = ? THEN 1 ELSE 0 END), 0) AS manual_validated,
  COALESCE(SUM(CASE WHEN status = ? AND is_validated = ? THEN 1 ELSE 0 END), 0) AS pending
FROM vendor_products
WHERE deleted_at IS NULL
`

const insertMissingLinksQuery = `
INSERT INTO design_product_links (design_id, vendor_product_id, created_at)
SELECT vp.design_id, vp.id, ?
FROM vendor_products vp
JOIN designs d ON d.id = vp.design_id AND d.deleted_at IS NULL
WHERE vp.deleted_at IS NULL
  AND NOT EXISTS (
    SELECT 1 FROM design_product_links l
    WHERE l.design_id = vp.design_id AND l.vendor_product_id = vp.id
  )
`

// Repository holds the cascade's queries over designs, vendor products and links.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindDesign loads a non-deleted design.
func (r *Repository) FindDesign(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := r.db.WithContext(ctx).First(&design, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

// ProductsLinkedTo returns non-deleted products joined through the link table.
func (r *Repository) ProductsLinkedTo(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Joins("JOIN design_product_links ON design_product_links.vendor_product_id = vendor_products.id").
		Where("design_product_links.design_id = ?", designID).
		Order("vendor_products.created_at, vendor_products.id").
		Find(&products).Error
	return products, err
}

// ProductsByDesignID returns non-deleted products pointing at the design directly.
func (r *Repository) ProductsByDesignID(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("design_id = ?", designID).
		Order("created_at, id").
		Find(&products).Error
	return products, err
}

// ProductsByLegacyURL returns the vendor's products whose stored design URL
// equals url exactly, whatever design_id they already carry.
func (r *Repository) ProductsByLegacyURL(ctx context.Context, vendorID uuid.UUID, url string) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND design_url = ?", vendorID, url).
		Order("created_at, id").
		Find(&products).Error
	return products, err
}

// BackfillDesignID sets design_id on a product that has none.
func (r *Repository) BackfillDesignID(ctx context.Context, productID, designID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorProduct{}).
		Where("id = ? AND design_id IS NULL", productID).
		Updates(map[string]any{
			"design_id":  designID,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// InsertLink creates the link row, leaving an existing row untouched.
func (r *Repository) InsertLink(ctx context.Context, designID, productID uuid.UUID) error {
	link := models.DesignProductLink{
		DesignID:        designID,
		VendorProductID: productID,
		CreatedAt:       time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

// MarkValidated moves a still-pending product to status. Zero rows affected
// means the product was already handled or no longer exists.
func (r *Repository) MarkValidated(ctx context.Context, productID uuid.UUID, status enums.VendorProductStatus, validator Validator, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorProduct{}).
		Where("id = ? AND status = ? AND is_validated = ?", productID, enums.VendorProductStatusPending, false).
		Updates(map[string]any{
			"status":            status,
			"is_validated":      true,
			"validated_at":      at,
			"validated_by_kind": validator.Kind,
			"validated_by":      validator.AdminID,
			"updated_at":        at,
		})
	return res.RowsAffected, res.Error
}

// FindProductUnscoped loads a product including soft-deleted rows.
func (r *Repository) FindProductUnscoped(ctx context.Context, id uuid.UUID) (*models.VendorProduct, error) {
	var product models.VendorProduct
	if err := r.db.WithContext(ctx).Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListSweepCandidates returns eligible products whose design, reached through
// design_id or a link row, is validated and not deleted.
func (r *Repository) ListSweepCandidates(ctx context.Context) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Raw(sweepCandidatesQuery, enums.VendorProductStatusPending, false, true, true).
		Scan(&products).Error
	return products, err
}

type statsRow struct {
	AutoValidated   int64 `gorm:"column:auto_validated"`
	ManualValidated int64 `gorm:"column:manual_validated"`
	Pending         int64 `gorm:"column:pending"`
}

// CountStats aggregates validation counters over non-deleted products.
func (r *Repository) CountStats(ctx context.Context) (statsRow, error) {
	var row statsRow
	err := r.db.WithContext(ctx).
		Raw(statsQuery,
			true, enums.ValidatorSystem,
			true, enums.ValidatorAdmin,
			enums.VendorProductStatusPending, false,
		).
		Scan(&row).Error
	return row, err
}

// InsertMissingLinks adds a link row for every product whose design_id has none.
func (r *Repository) InsertMissingLinks(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(insertMissingLinksQuery, time.Now().UTC())
	return res.RowsAffected, res.Error
}

// ListLegacyUnattached returns products that only carry a legacy design URL.
func (r *Repository) ListLegacyUnattached(ctx context.Context) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("design_id IS NULL AND design_url IS NOT NULL AND design_url <> ''").
		Order("created_at, id").
		Find(&products).Error
	return products, err
}

// FindDesignByVendorURL returns the vendor's oldest non-deleted design with the given image URL.
func (r *Repository) FindDesignByVendorURL(ctx context.Context, vendorID uuid.UUID, url string) (*models.Design, error) {
	var design models.Design
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND image_url = ?", vendorID, url).
		Order("created_at, id").
		First(&design).Error
	if err != nil {
		return nil, err
	}
	return &design, nil
}
