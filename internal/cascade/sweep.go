package cascade

import (
	"context"

	"github.com/printforge/printforge-backend/pkg/enums"
)

// AutoValidateAllEligibleProducts validates every pending product whose design
// is already validated, attributing the change to the system.
func (s *service) AutoValidateAllEligibleProducts(ctx context.Context) (*Result, error) {
	candidates, err := s.repo.ListSweepCandidates(ctx)
	if err != nil {
		return nil, wrapStore(err, "list sweep candidates")
	}
	ctx = s.logg.WithField(ctx, "candidates", len(candidates))
	result := s.applier.Apply(ctx, candidates, enums.ValidationActionValidate, SystemValidator())
	if err := result.Err(); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "global sweep finished with failures")
	}
	return result, nil
}
