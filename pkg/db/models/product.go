package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item with its live stock counters. The counters are
// derived state: each equals the sum of the matching column across the
// product's stock movements.
type Product struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Description      *string         `gorm:"column:description"`
	BasePrice        decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	Category         string          `gorm:"column:category;not null"`
	ImageURL         *string         `gorm:"column:image_url"`
	IsAvailable      bool            `gorm:"column:is_available;not null;default:true"`
	StockQuantity    int             `gorm:"column:stock_quantity;not null;default:0"`
	ReservedQuantity int             `gorm:"column:reserved_quantity;not null;default:0"`
	MinOrderQty      int             `gorm:"column:min_order_qty;not null;default:1"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableQuantity is the stock an order can still claim.
func (p Product) AvailableQuantity() int {
	available := p.StockQuantity - p.ReservedQuantity
	if available < 0 {
		return 0
	}
	return available
}
