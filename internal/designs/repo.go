package designs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/pagination"
)

// Repository persists designs.
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

func (r *Repository) Create(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Create(design).Error
}

// FindByID loads a non-deleted design.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := r.db.WithContext(ctx).First(&design, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

// ListPending returns designs still awaiting an admin decision, oldest first,
// starting after the cursor when one is given.
func (r *Repository) ListPending(ctx context.Context, after *pagination.Cursor, limit int) ([]models.Design, error) {
	var designs []models.Design
	q := r.db.WithContext(ctx).
		Where("is_validated = ? AND validated_at IS NULL", false)
	if after != nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	err := q.Order("created_at, id").
		Limit(limit).
		Find(&designs).Error
	return designs, err
}

type decision struct {
	validated       bool
	adminID         uuid.UUID
	rejectionReason *string
	at              time.Time
}

// RecordDecision stores the admin decision on a design that has none yet.
// Zero rows affected means another decision won or the design is gone.
func (r *Repository) RecordDecision(ctx context.Context, id uuid.UUID, d decision) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Design{}).
		Where("id = ? AND validated_at IS NULL", id).
		Updates(map[string]any{
			"is_validated":     d.validated,
			"is_pending":       false,
			"validated_at":     d.at,
			"validated_by":     d.adminID,
			"rejection_reason": d.rejectionReason,
			"updated_at":       d.at,
		})
	return res.RowsAffected, res.Error
}

// SoftDelete marks the design deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Design{}, "id = ?", id).Error
}

// DeleteLinks removes every link row for the design.
func (r *Repository) DeleteLinks(ctx context.Context, designID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("design_id = ?", designID).
		Delete(&models.DesignProductLink{})
	return res.RowsAffected, res.Error
}
