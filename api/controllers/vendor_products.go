package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/api/validators"
	"github.com/printforge/printforge-backend/internal/vendorproducts"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type createVendorProductRequest struct {
	BaseProductID        string          `json:"base_product_id" validate:"required,uuid"`
	DesignID             string          `json:"design_id" validate:"required,uuid"`
	Name                 string          `json:"name" validate:"required,min=1,max=200"`
	Price                decimal.Decimal `json:"price"`
	PostValidationAction *string         `json:"post_validation_action,omitempty"`
}

func (r createVendorProductRequest) toInput() (vendorproducts.CreateVendorProductInput, error) {
	baseID, err := uuid.Parse(r.BaseProductID)
	if err != nil {
		return vendorproducts.CreateVendorProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "base_product_id must be a uuid")
	}
	designID, err := uuid.Parse(r.DesignID)
	if err != nil {
		return vendorproducts.CreateVendorProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "design_id must be a uuid")
	}
	action, err := parseAction(r.PostValidationAction)
	if err != nil {
		return vendorproducts.CreateVendorProductInput{}, err
	}
	return vendorproducts.CreateVendorProductInput{
		BaseProductID:        baseID,
		DesignID:             designID,
		Name:                 r.Name,
		Price:                r.Price,
		PostValidationAction: action,
	}, nil
}

// A null action clears the vendor's choice.
type updatePostValidationActionRequest struct {
	PostValidationAction *string `json:"post_validation_action"`
}

func parseAction(raw *string) (*enums.PostValidationAction, error) {
	if raw == nil {
		return nil, nil
	}
	action, err := enums.ParsePostValidationAction(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "post_validation_action must be auto_publish or to_draft")
	}
	return &action, nil
}

func VendorCreateProduct(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor product service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createVendorProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateVendorProduct(r.Context(), vendorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func VendorListProducts(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor product service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListVendorProducts(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// VendorUpdatePostValidationAction changes what happens to a pending product
// once its design is approved.
func VendorUpdatePostValidationAction(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor product service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePostValidationActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := parseAction(payload.PostValidationAction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdatePostValidationAction(r.Context(), vendorID, productID, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func VendorDeleteProduct(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor product service unavailable"))
			return
		}
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVendorProduct(r.Context(), vendorID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": productID, "deleted": true})
	}
}
