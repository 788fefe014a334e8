package controllers

import (
	"net/http"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/internal/cascade"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type autoValidateResponse struct {
	UpdatedCount      int             `json:"updated_count"`
	UpdatedProductIDs []string        `json:"updated_product_ids"`
	Result            *cascade.Result `json:"result"`
}

// AdminAutoValidate runs the global sweep on demand.
func AdminAutoValidate(svc cascade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cascade service unavailable"))
			return
		}
		result, err := svc.AutoValidateAllEligibleProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids := make([]string, 0, result.UpdatedCount())
		for _, id := range result.UpdatedIDs() {
			ids = append(ids, id.String())
		}
		if logg != nil && len(result.Failures) > 0 {
			logg.Warn(logg.WithField(r.Context(), "failed", len(result.Failures)), "auto validation finished with failures")
		}
		responses.WriteSuccess(w, autoValidateResponse{
			UpdatedCount:      result.UpdatedCount(),
			UpdatedProductIDs: ids,
			Result:            result,
		})
	}
}

func AdminAutoValidationStats(svc cascade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cascade service unavailable"))
			return
		}
		stats, err := svc.GetAutoValidationStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminBackfillLinks writes the design link for products that predate it.
func AdminBackfillLinks(svc cascade.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cascade service unavailable"))
			return
		}
		result, err := svc.BackfillLinks(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
