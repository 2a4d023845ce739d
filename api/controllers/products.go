package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/api/responses"
	"github.com/ganeshkulfi/factory-backend/api/validators"
	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
)

// catalogProductView is the retailer-facing product projection. Stock is
// reduced to what can still be ordered; the raw counters stay internal.
type catalogProductView struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       *string         `json:"description,omitempty"`
	BasePrice         decimal.Decimal `json:"base_price"`
	Category          string          `json:"category"`
	ImageURL          *string         `json:"image_url,omitempty"`
	IsAvailable       bool            `json:"is_available"`
	AvailableQuantity int             `json:"available_quantity"`
	MinOrderQty       int             `json:"min_order_qty"`
}

func toCatalogView(p *models.Product) catalogProductView {
	return catalogProductView{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		BasePrice:         p.BasePrice,
		Category:          p.Category,
		ImageURL:          p.ImageURL,
		IsAvailable:       p.IsAvailable,
		AvailableQuantity: p.AvailableQuantity(),
		MinOrderQty:       p.MinOrderQty,
	}
}

// ListProducts returns the retailer catalog.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := products.ListFilters{
			Category:      strings.TrimSpace(r.URL.Query().Get("category")),
			AvailableOnly: r.URL.Query().Get("available_only") == "true",
		}
		rows, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]catalogProductView, 0, len(rows))
		for i := range rows {
			views = append(views, toCatalogView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

// GetProduct returns a single catalog entry.
func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCatalogView(product))
	}
}

// AdminListProducts returns products with their raw stock counters.
func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := products.ListFilters{
			Category:      strings.TrimSpace(r.URL.Query().Get("category")),
			AvailableOnly: r.URL.Query().Get("available_only") == "true",
		}
		rows, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
