package orders

import (
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/types"
)

// RetailerView projects an order onto the retailer-safe allow-list. The
// internal pricing breakdown columns never cross this boundary.
func RetailerView(order *models.Order) types.RetailerOrderView {
	view := types.RetailerOrderView{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,

		ItemCount:     order.ItemCount,
		TotalQuantity: order.TotalQuantity,
		Subtotal:      order.Subtotal,
		DiscountTotal: order.DiscountTotal,
		TaxTotal:      order.TaxTotal,
		GrandTotal:    order.GrandTotal,

		RetailerNotes:       order.RetailerNotes,
		RejectionReason:     order.RejectionReason,
		ConfirmationMessage: order.ConfirmationMessage,
		CancellationReason:  order.CancellationReason,

		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		ConfirmedAt: order.ConfirmedAt,
		RejectedAt:  order.RejectedAt,
		CompletedAt: order.CompletedAt,
		CancelledAt: order.CancelledAt,
	}
	if len(order.Items) > 0 {
		view.Items = make([]types.RetailerOrderItemView, 0, len(order.Items))
		for _, item := range order.Items {
			view.Items = append(view.Items, types.RetailerOrderItemView{
				ProductID:      item.ProductID,
				ProductName:    item.ProductName,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				DiscountAmount: item.DiscountAmount,
				TaxAmount:      item.TaxAmount,
				LineTotal:      item.LineTotal,
			})
		}
	}
	return view
}

// RetailerViews maps a slice of orders into retailer views.
func RetailerViews(rows []models.Order) []types.RetailerOrderView {
	views := make([]types.RetailerOrderView, 0, len(rows))
	for i := range rows {
		views = append(views, RetailerView(&rows[i]))
	}
	return views
}
