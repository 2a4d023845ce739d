package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// Order is a wholesale order header. The pricing breakdown columns near the
// bottom are server-internal: retailer-facing responses are built from an
// allow-list DTO and never include them, and the json:"-" tags keep them out
// of any accidental direct marshal.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;uniqueIndex;not null"`
	RetailerID  uuid.UUID `gorm:"column:retailer_id;type:uuid;not null;index"`

	// Retailer display fields are denormalized at creation so later profile
	// edits do not rewrite history.
	RetailerEmail string  `gorm:"column:retailer_email;not null"`
	RetailerName  string  `gorm:"column:retailer_name;not null"`
	ShopName      *string `gorm:"column:shop_name"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`

	ItemCount     int             `gorm:"column:item_count;not null"`
	TotalQuantity int             `gorm:"column:total_quantity;not null"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"column:discount_total;type:numeric(10,2);not null"`
	TaxTotal      decimal.Decimal `gorm:"column:tax_total;type:numeric(10,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"column:grand_total;type:numeric(10,2);not null"`

	RetailerNotes       *string `gorm:"column:retailer_notes"`
	FactoryNotes        *string `gorm:"column:factory_notes"`
	RejectionReason     *string `gorm:"column:rejection_reason"`
	ConfirmationMessage *string `gorm:"column:confirmation_message"`
	CancellationReason  *string `gorm:"column:cancellation_reason"`

	IdempotencyKey *string `gorm:"column:idempotency_key;uniqueIndex"`

	// Server-internal pricing breakdown. Base/override/discount are only
	// populated for single-line orders; the tax rate applies order-wide.
	// GrossSubtotal is the pre-discount, pre-tax aggregate, so
	// grand_total = gross_subtotal - discount_total + tax_total.
	GrossSubtotal   decimal.Decimal  `gorm:"column:gross_subtotal;type:numeric(10,2);not null" json:"-"`
	BasePrice       *decimal.Decimal `gorm:"column:base_price;type:numeric(10,2)" json:"-"`
	OverridePrice   *decimal.Decimal `gorm:"column:override_price;type:numeric(10,2)" json:"-"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)" json:"-"`
	TaxPercent      decimal.Decimal  `gorm:"column:tax_percent;type:numeric(5,2);not null" json:"-"`

	ConfirmedBy *uuid.UUID `gorm:"column:confirmed_by;type:uuid"`
	RejectedBy  *uuid.UUID `gorm:"column:rejected_by;type:uuid"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	RejectedAt  *time.Time `gorm:"column:rejected_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
