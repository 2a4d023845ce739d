package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/api/middleware"
	"github.com/ganeshkulfi/factory-backend/api/responses"
	"github.com/ganeshkulfi/factory-backend/api/validators"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
)

type createOverrideRequest struct {
	ProductID     uuid.UUID       `json:"product_id" validate:"required"`
	Tier          string          `json:"tier" validate:"required"`
	OverridePrice decimal.Decimal `json:"override_price" validate:"required"`
}

// AdminCreatePriceOverride creates an active tier price for a product.
func AdminCreatePriceOverride(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOverrideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := enums.ParseRetailerTier(strings.TrimSpace(req.Tier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retailer tier"))
			return
		}

		override, err := svc.CreateOverride(r.Context(), pricing.CreateOverrideInput{
			ProductID:     req.ProductID,
			Tier:          tier,
			OverridePrice: req.OverridePrice,
			ActorID:       middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, override)
	}
}

// AdminListPriceOverrides lists every override, active and retired, for one
// product.
func AdminListPriceOverrides(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if productID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required").
				WithDetails(map[string]any{"field": "product_id"}))
			return
		}

		overrides, err := svc.ListOverrides(r.Context(), *productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overrides)
	}
}

// AdminDeactivatePriceOverride retires an override without deleting its row.
func AdminDeactivatePriceOverride(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overrideID, err := validators.PathUUID(chi.URLParam(r, "overrideID"), "overrideID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeactivateOverride(r.Context(), overrideID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deactivated": true})
	}
}
