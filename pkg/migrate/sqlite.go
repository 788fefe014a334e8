package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for the local sqlite mode and tests.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'vendor')),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS base_products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT NOT NULL UNIQUE,
		base_price NUMERIC NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS designs (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL,
		is_validated BOOLEAN NOT NULL DEFAULT 0,
		validated_at DATETIME,
		validated_by TEXT,
		rejection_reason TEXT,
		is_pending BOOLEAN NOT NULL DEFAULT 1,
		is_published BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS vendor_products (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		base_product_id TEXT NOT NULL,
		design_id TEXT,
		design_url TEXT,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'draft', 'published')),
		is_validated BOOLEAN NOT NULL DEFAULT 0,
		post_validation_action TEXT CHECK (post_validation_action IN ('auto_publish', 'to_draft')),
		validated_at DATETIME,
		validated_by_kind TEXT CHECK (validated_by_kind IN ('admin', 'system')),
		validated_by TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		CHECK (status <> 'published' OR is_validated = 1)
	)`,
	`CREATE TABLE IF NOT EXISTS design_product_links (
		design_id TEXT NOT NULL,
		vendor_product_id TEXT NOT NULL,
		created_at DATETIME,
		PRIMARY KEY (design_id, vendor_product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vendor_products_design_id ON vendor_products (design_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vendor_products_vendor_id ON vendor_products (vendor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_designs_vendor_id ON designs (vendor_id)`,
}

// ApplySQLiteSchema creates the tables on a sqlite connection.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
