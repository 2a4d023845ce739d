package enums

import "fmt"

// StockMovementReason labels every row in the stock ledger. On-hand quantity
// is the sum of deltas per product, so each reason maps to exactly one kind
// of physical or accounting event.
type StockMovementReason string

const (
	StockMovementReasonInitialStock      StockMovementReason = "initial_stock"
	StockMovementReasonManualAdjustment  StockMovementReason = "manual_adjustment"
	StockMovementReasonOrderReserved     StockMovementReason = "order_reserved"
	StockMovementReasonOrderReleased     StockMovementReason = "order_released"
	StockMovementReasonOrderDeducted     StockMovementReason = "order_deducted"
	StockMovementReasonOrderCancelRefund StockMovementReason = "order_cancel_refund"
	StockMovementReasonWastage           StockMovementReason = "wastage"
	StockMovementReasonDamage            StockMovementReason = "damage"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementReasonInitialStock,
	StockMovementReasonManualAdjustment,
	StockMovementReasonOrderReserved,
	StockMovementReasonOrderReleased,
	StockMovementReasonOrderDeducted,
	StockMovementReasonOrderCancelRefund,
	StockMovementReasonWastage,
	StockMovementReasonDamage,
}

// String implements fmt.Stringer.
func (s StockMovementReason) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockMovementReason.
func (s StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into a StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
