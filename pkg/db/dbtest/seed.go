package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
)

// MustCreateUser inserts an active user with the given role.
func MustCreateUser(t testing.TB, tx *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("pf_test_%s@example.com", uuid.NewString()),
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		IsActive:  true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateBaseProduct inserts an active base product priced at price.
func MustCreateBaseProduct(t testing.TB, tx *gorm.DB, price string) *models.BaseProduct {
	t.Helper()
	base := &models.BaseProduct{
		ID:        uuid.New(),
		Name:      "Classic Tee",
		SKU:       "TEE-" + uuid.NewString()[:8],
		BasePrice: decimal.RequireFromString(price),
		IsActive:  true,
	}
	if err := tx.Create(base).Error; err != nil {
		t.Fatalf("create base product: %v", err)
	}
	return base
}

// DesignOption mutates a design before insert.
type DesignOption func(*models.Design)

// Validated marks the design as approved by adminID.
func Validated(adminID uuid.UUID) DesignOption {
	return func(d *models.Design) {
		now := time.Now().UTC()
		d.IsValidated = true
		d.IsPending = false
		d.ValidatedAt = &now
		d.ValidatedBy = &adminID
	}
}

// Rejected marks the design as rejected with reason.
func Rejected(adminID uuid.UUID, reason string) DesignOption {
	return func(d *models.Design) {
		now := time.Now().UTC()
		d.IsPending = false
		d.ValidatedAt = &now
		d.ValidatedBy = &adminID
		d.RejectionReason = &reason
	}
}

// WithImageURL overrides the design image URL.
func WithImageURL(url string) DesignOption {
	return func(d *models.Design) { d.ImageURL = url }
}

// DesignCreatedAt pins the creation time for queue ordering assertions.
func DesignCreatedAt(at time.Time) DesignOption {
	return func(d *models.Design) { d.CreatedAt = at }
}

// MustCreateDesign inserts a pending design owned by vendorID.
func MustCreateDesign(t testing.TB, tx *gorm.DB, vendorID uuid.UUID, opts ...DesignOption) *models.Design {
	t.Helper()
	id := uuid.New()
	design := &models.Design{
		ID:        id,
		VendorID:  vendorID,
		Name:      "Design " + id.String()[:8],
		ImageURL:  "https://cdn.printforge.test/designs/" + id.String() + ".png",
		IsPending: true,
	}
	for _, opt := range opts {
		opt(design)
	}
	if err := tx.Create(design).Error; err != nil {
		t.Fatalf("create design: %v", err)
	}
	return design
}

// ProductOption mutates a vendor product before insert.
type ProductOption func(*models.VendorProduct)

// WithDesign sets the direct design reference.
func WithDesign(designID uuid.UUID) ProductOption {
	return func(p *models.VendorProduct) { p.DesignID = &designID }
}

// WithDesignURL sets the legacy design URL.
func WithDesignURL(url string) ProductOption {
	return func(p *models.VendorProduct) { p.DesignURL = &url }
}

// WithAction sets the post validation action.
func WithAction(action enums.PostValidationAction) ProductOption {
	return func(p *models.VendorProduct) { p.PostValidationAction = &action }
}

// WithStatus overrides status and validation flag together.
func WithStatus(status enums.VendorProductStatus, validated bool) ProductOption {
	return func(p *models.VendorProduct) {
		p.Status = status
		p.IsValidated = validated
		if validated {
			now := time.Now().UTC()
			kind := enums.ValidatorSystem
			p.ValidatedAt = &now
			p.ValidatedByKind = &kind
		}
	}
}

// WithCreatedAt pins the creation time for ordering assertions.
func WithCreatedAt(at time.Time) ProductOption {
	return func(p *models.VendorProduct) { p.CreatedAt = at }
}

// MustCreateVendorProduct inserts a pending, unvalidated vendor product.
func MustCreateVendorProduct(t testing.TB, tx *gorm.DB, vendorID, baseProductID uuid.UUID, opts ...ProductOption) *models.VendorProduct {
	t.Helper()
	product := &models.VendorProduct{
		ID:            uuid.New(),
		VendorID:      vendorID,
		BaseProductID: baseProductID,
		Name:          "Product " + uuid.NewString()[:8],
		Price:         decimal.RequireFromString("24.99"),
		Status:        enums.VendorProductStatusPending,
	}
	for _, opt := range opts {
		opt(product)
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create vendor product: %v", err)
	}
	return product
}

// MustLink inserts a design/product link row.
func MustLink(t testing.TB, tx *gorm.DB, designID, productID uuid.UUID) {
	t.Helper()
	link := &models.DesignProductLink{DesignID: designID, VendorProductID: productID}
	if err := tx.Create(link).Error; err != nil {
		t.Fatalf("create link: %v", err)
	}
}

// MustReloadProduct reads a vendor product including soft-deleted rows.
func MustReloadProduct(t testing.TB, tx *gorm.DB, id uuid.UUID) *models.VendorProduct {
	t.Helper()
	var product models.VendorProduct
	if err := tx.Unscoped().First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload vendor product: %v", err)
	}
	return &product
}

// MustReloadDesign reads a design including soft-deleted rows.
func MustReloadDesign(t testing.TB, tx *gorm.DB, id uuid.UUID) *models.Design {
	t.Helper()
	var design models.Design
	if err := tx.Unscoped().First(&design, "id = ?", id).Error; err != nil {
		t.Fatalf("reload design: %v", err)
	}
	return &design
}

// CountLinks returns the number of link rows for the pair.
func CountLinks(t testing.TB, tx *gorm.DB, designID, productID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := tx.Model(&models.DesignProductLink{}).
		Where("design_id = ? AND vendor_product_id = ?", designID, productID).
		Count(&count).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	return count
}
