package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// PriceOverride replaces a product's base price for one retailer tier. Only
// one active override may exist per (product, tier) pair; creation fails with
// a conflict while an active row exists.
type PriceOverride struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Tier          enums.RetailerTier `gorm:"column:tier;type:text;not null"`
	OverridePrice decimal.Decimal    `gorm:"column:override_price;type:numeric(10,2);not null"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	CreatedBy     *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
