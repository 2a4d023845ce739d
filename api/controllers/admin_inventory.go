package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ganeshkulfi/factory-backend/api/middleware"
	"github.com/ganeshkulfi/factory-backend/api/responses"
	"github.com/ganeshkulfi/factory-backend/api/validators"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
	"github.com/google/uuid"
)

type stockAdjustmentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Delta     int       `json:"delta" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Note      string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

// AdminAdjustStock records a manual stock movement against a product.
func AdminAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stockAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseStockMovementReason(strings.TrimSpace(req.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment reason"))
			return
		}

		movement, err := svc.Adjust(r.Context(), inventory.AdjustInput{
			ProductID: req.ProductID,
			Delta:     req.Delta,
			Reason:    reason,
			Note:      req.Note,
			ActorID:   middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// AdminProductMovements returns the ledger for one product, newest first.
func AdminProductMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.Movements(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}

// AdminOrderMovements returns every ledger row an order produced, oldest
// first, so reservations and their reversals read in sequence.
func AdminOrderMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, err := svc.MovementsForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}

// AdminListMovements returns the most recent ledger rows across all products.
func AdminListMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.AllMovements(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}
