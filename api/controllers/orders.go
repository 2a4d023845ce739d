package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/api/middleware"
	"github.com/ganeshkulfi/factory-backend/api/responses"
	"github.com/ganeshkulfi/factory-backend/api/validators"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/internal/notifications"
	"github.com/ganeshkulfi/factory-backend/internal/orders"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
	"github.com/ganeshkulfi/factory-backend/pkg/pagination"
)

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes          *string            `json:"notes,omitempty"`
	IdempotencyKey *string            `json:"idempotency_key,omitempty"`
}

type cancelOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// CreateOrder submits a retailer order. All prices are computed server-side;
// the request carries products and quantities only.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key := req.IdempotencyKey
		if header := strings.TrimSpace(r.Header.Get("Idempotency-Key")); header != "" {
			key = &header
		}

		input := orders.CreateInput{
			RetailerID:     middleware.UserIDFromContext(r.Context()),
			RetailerNotes:  req.Notes,
			IdempotencyKey: key,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.CreateItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Reused {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, orders.RetailerView(result.Order))
	}
}

// ListMyOrders returns the caller's orders, filtered and paginated.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, params, err := parseOrderListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForRetailer(r.Context(), middleware.UserIDFromContext(r.Context()), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetMyOrder returns one of the caller's orders with its lines.
func GetMyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetForRetailer(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.RetailerView(order))
	}
}

// GetMyOrderByNumber resolves one of the caller's orders by order number.
func GetMyOrderByNumber(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "orderNumber")
		order, err := svc.GetForRetailerByNumber(r.Context(), middleware.UserIDFromContext(r.Context()), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.RetailerView(order))
	}
}

// MyOrderTimeline returns the curated status timeline for one order.
func MyOrderTimeline(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		timeline, err := svc.Timeline(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, timeline)
	}
}

// CancelMyOrder cancels one of the caller's pending orders.
func CancelMyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.CancelByRetailer(r.Context(), middleware.UserIDFromContext(r.Context()), orderID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.RetailerView(order))
	}
}

type validateStockRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ValidateOrderStock checks availability for a prospective order without
// reserving anything.
func ValidateOrderStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]inventory.Item, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, inventory.Item{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		result, err := svc.ValidateStock(r.Context(), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PollOrderUpdates returns the caller's unseen order updates and marks them
// delivered.
func PollOrderUpdates(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updates, err := svc.Poll(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updates)
	}
}

func parseOrderListQuery(r *http.Request) (orders.ListFilters, pagination.Params, error) {
	var filters orders.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		filters.PaymentStatus = &status
	}

	var err error
	if filters.CreatedFrom, err = validators.ParseQueryDate(r, "from"); err != nil {
		return filters, pagination.Params{}, err
	}
	if filters.CreatedTo, err = validators.ParseQueryDate(r, "to"); err != nil {
		return filters, pagination.Params{}, err
	}
	if filters.MinTotal, err = validators.ParseQueryDecimal(r, "min_total"); err != nil {
		return filters, pagination.Params{}, err
	}
	if filters.MaxTotal, err = validators.ParseQueryDecimal(r, "max_total"); err != nil {
		return filters, pagination.Params{}, err
	}

	filters.SortBy = strings.TrimSpace(r.URL.Query().Get("sort"))
	filters.SortDesc = r.URL.Query().Get("order") != "asc"

	params, err := validators.ParsePagination(r)
	if err != nil {
		return filters, pagination.Params{}, err
	}
	return filters, params, nil
}
