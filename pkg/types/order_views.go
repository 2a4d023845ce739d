package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// RetailerOrderItemView is the retailer-safe projection of an order line.
// The fields here are an allow-list: anything not present in this struct is
// server-internal and must stay that way.
type RetailerOrderItemView struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// RetailerOrderView is the retailer-safe projection of an order header.
type RetailerOrderView struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`

	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`

	RetailerNotes       *string `json:"retailer_notes,omitempty"`
	RejectionReason     *string `json:"rejection_reason,omitempty"`
	ConfirmationMessage *string `json:"confirmation_message,omitempty"`
	CancellationReason  *string `json:"cancellation_reason,omitempty"`

	Items []RetailerOrderItemView `json:"items,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// PriceQuoteView is the retailer-safe result of pricing one (product,
// quantity) line.
type PriceQuoteView struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	FinalUnitPrice decimal.Decimal `json:"final_unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// TimelineEntryView is one curated entry of the retailer order timeline.
type TimelineEntryView struct {
	Status    enums.OrderStatus `json:"status"`
	Label     string            `json:"label"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
