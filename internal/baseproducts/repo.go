package baseproducts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
)

// Repository reads the admin-owned base product catalog.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByID loads an active base product.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.BaseProduct, error) {
	var base models.BaseProduct
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&base).Error; err != nil {
		return nil, err
	}
	return &base, nil
}

// ListActive returns the catalog ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.BaseProduct, error) {
	var rows []models.BaseProduct
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
