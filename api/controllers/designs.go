package controllers

import (
	"net/http"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/api/validators"
	"github.com/printforge/printforge-backend/internal/designs"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/pagination"
)

type createDesignRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	ImageURL string `json:"image_url" validate:"required,httpurl,max=2048"`
}

func (r createDesignRequest) toInput() designs.CreateDesignInput {
	return designs.CreateDesignInput{Name: r.Name, ImageURL: r.ImageURL}
}

type validateDesignRequest struct {
	Action          string  `json:"action" validate:"required"`
	RejectionReason *string `json:"rejection_reason,omitempty" validate:"omitempty,max=1000"`
}

func (r validateDesignRequest) toInput() (designs.ValidateDesignInput, error) {
	action, err := enums.ParseValidationAction(r.Action)
	if err != nil {
		return designs.ValidateDesignInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "action must be VALIDATE or REJECT")
	}
	return designs.ValidateDesignInput{Action: action, RejectionReason: r.RejectionReason}, nil
}

// VendorCreateDesign registers a pending design for the calling vendor.
func VendorCreateDesign(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.CreateDesign(r.Context(), vendorID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, design)
	}
}

// VendorGetDesign returns a design owned by the calling vendor.
func VendorGetDesign(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		designID, err := validators.ParseUUIDParam(r, "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		design, err := svc.GetDesign(r.Context(), vendorID, designID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, design)
	}
}

func VendorDeleteDesign(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		designID, err := validators.ParseUUIDParam(r, "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteDesign(r.Context(), vendorID, designID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": designID, "deleted": true})
	}
}

// AdminListPendingDesigns returns one page of the validation queue, oldest
// first. Pass next_cursor back as ?cursor= for the following page.
func AdminListPendingDesigns(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design service unavailable"))
			return
		}
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPendingDesigns(r.Context(), adminID, pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminValidateDesign applies a VALIDATE or REJECT decision and reports the
// products the cascade moved.
func AdminValidateDesign(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "design service unavailable"))
			return
		}
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		designID, err := validators.ParseUUIDParam(r, "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.ValidateDesign(r.Context(), designID, adminID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}
