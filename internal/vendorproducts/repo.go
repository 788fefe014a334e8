package vendorproducts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

// Repository persists vendor products and their design links.
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

func (r *Repository) Create(ctx context.Context, product *models.VendorProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// InsertLink creates the design link, leaving an existing row untouched.
func (r *Repository) InsertLink(ctx context.Context, designID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DesignProductLink{DesignID: designID, VendorProductID: productID}).Error
}

// FindByID loads a non-deleted vendor product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProduct, error) {
	var product models.VendorProduct
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByVendor returns the vendor's non-deleted products, newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id").
		Find(&products).Error
	return products, err
}

// UpdatePostValidationAction changes the action on a product still awaiting
// validation. Zero rows affected means the product already left pending.
func (r *Repository) UpdatePostValidationAction(ctx context.Context, id uuid.UUID, action *enums.PostValidationAction) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorProduct{}).
		Where("id = ? AND status = ? AND is_validated = ?", id, enums.VendorProductStatusPending, false).
		Updates(map[string]any{
			"post_validation_action": action,
			"updated_at":             time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// SoftDelete marks the product deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.VendorProduct{}, "id = ?", id).Error
}

// DeleteLinks removes every link row for the product.
func (r *Repository) DeleteLinks(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("vendor_product_id = ?", productID).
		Delete(&models.DesignProductLink{}).Error
}
