package cascade

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// BackfillResult reports what a link backfill repaired.
type BackfillResult struct {
	LinksInserted   int64 `json:"links_inserted"`
	LegacyResolved  int   `json:"legacy_resolved"`
	LegacyUnmatched int   `json:"legacy_unmatched"`
	LegacyFailed    int   `json:"legacy_failed"`
}

func (s *service) BackfillLinks(ctx context.Context) (*BackfillResult, error) {
	out := &BackfillResult{}

	inserted, err := s.repo.InsertMissingLinks(ctx)
	if err != nil {
		return nil, wrapStore(err, "insert missing links")
	}
	out.LinksInserted = inserted

	legacy, err := s.repo.ListLegacyUnattached(ctx)
	if err != nil {
		return nil, wrapStore(err, "list legacy products")
	}
	for _, product := range legacy {
		logCtx := s.logg.WithField(ctx, "vendor_product_id", product.ID.String())
		design, err := s.repo.FindDesignByVendorURL(ctx, product.VendorID, *product.DesignURL)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.LegacyUnmatched++
			continue
		}
		if err != nil {
			return nil, wrapStore(err, "match legacy design")
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return attach(ctx, s.repo.WithTx(tx), design.ID, product.ID)
		})
		if err != nil {
			out.LegacyFailed++
			s.logg.Error(s.logg.WithField(logCtx, "design_id", design.ID.String()), "legacy product backfill failed", err)
			continue
		}
		out.LegacyResolved++
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"links_inserted":   out.LinksInserted,
		"legacy_resolved":  out.LegacyResolved,
		"legacy_unmatched": out.LegacyUnmatched,
		"legacy_failed":    out.LegacyFailed,
	})
	s.logg.Info(logCtx, "design link backfill finished")
	return out, nil
}
