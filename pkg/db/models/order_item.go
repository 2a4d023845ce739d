package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable priced snapshot of one order line. UnitPrice is
// the final per-unit charge after discount and tax.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string          `gorm:"column:product_name;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`

	// Per-line server-internal breakdown, never serialized.
	BasePrice       decimal.Decimal  `gorm:"column:base_price;type:numeric(10,2);not null" json:"-"`
	OverridePrice   *decimal.Decimal `gorm:"column:override_price;type:numeric(10,2)" json:"-"`
	DiscountPercent decimal.Decimal  `gorm:"column:discount_percent;type:numeric(5,2);not null" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
