package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/api/middleware"
	"github.com/ganeshkulfi/factory-backend/api/responses"
	"github.com/ganeshkulfi/factory-backend/api/validators"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
)

type priceQuoteRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// QuotePrice prices one line for the authenticated retailer without creating
// anything. The response carries final amounts only.
func QuotePrice(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req priceQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailerID := middleware.UserIDFromContext(r.Context())
		breakdown, err := svc.Calculate(r.Context(), req.ProductID, retailerID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown.RetailerView())
	}
}
