package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// StockMovement is one row of the append-only stock ledger. Delta changes
// on-hand stock, ReservedDelta changes the reservation counter. Summing each
// column per product must reproduce the product's counters.
type StockMovement struct {
	ID            int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID     uuid.UUID                 `gorm:"column:product_id;type:uuid;not null;index"`
	Delta         int                       `gorm:"column:delta;not null"`
	ReservedDelta int                       `gorm:"column:reserved_delta;not null;default:0"`
	Reason        enums.StockMovementReason `gorm:"column:reason;type:text;not null"`
	ActorID       *uuid.UUID                `gorm:"column:actor_id;type:uuid"`
	OrderID       *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	Note          *string                   `gorm:"column:note"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
