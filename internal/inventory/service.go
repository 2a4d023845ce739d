package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/metrics"
)

// Item is one (product, quantity) pair an order wants to move.
type Item struct {
	ProductID uuid.UUID
	Quantity  int
}

// LineResult reports the stock check outcome for one requested line.
type LineResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	Requested  int       `json:"requested"`
	Available  int       `json:"available"`
	Sufficient bool      `json:"sufficient"`
}

// ValidationResult aggregates the stock check for a prospective order.
type ValidationResult struct {
	OK    bool         `json:"ok"`
	Lines []LineResult `json:"lines"`
}

// Service moves stock through the append-only ledger. Every movement writes
// one ledger row and bumps the product counters in the same transaction.
type Service interface {
	ValidateStock(ctx context.Context, items []Item) (*ValidationResult, error)
	Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []Item, actorID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID uuid.UUID) error
	Deduct(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []Item, actorID uuid.UUID) error
	Refund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID uuid.UUID) error
	Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error)
	Movements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
	MovementsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error)
	AllMovements(ctx context.Context, limit int) ([]models.StockMovement, error)
}

// AdjustInput carries a manual stock adjustment.
type AdjustInput struct {
	ProductID uuid.UUID
	Delta     int
	Reason    enums.StockMovementReason
	Note      string
	ActorID   uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	ledger   Repository
	products products.Repository
	tx       txRunner
	metrics  *metrics.OrderMetrics
}

// NewService builds the inventory service.
func NewService(ledger Repository, productRepo products.Repository, tx txRunner, m *metrics.OrderMetrics) Service {
	return &service{
		ledger:   ledger,
		products: productRepo,
		tx:       tx,
		metrics:  m,
	}
}

var manualReasons = map[enums.StockMovementReason]bool{
	enums.StockMovementReasonInitialStock:     true,
	enums.StockMovementReasonManualAdjustment: true,
	enums.StockMovementReasonWastage:          true,
	enums.StockMovementReasonDamage:           true,
}

// ValidateStock is a pure read: it never moves stock. Unknown products are
// reported as available 0 rather than failing the whole check.
func (s *service) ValidateStock(ctx context.Context, items []Item) (*ValidationResult, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		ids = append(ids, item.ProductID)
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{OK: true, Lines: make([]LineResult, 0, len(items))}
	for _, item := range items {
		available := 0
		if product, ok := found[item.ProductID]; ok && product.IsAvailable {
			available = product.AvailableQuantity()
		}
		line := LineResult{
			ProductID:  item.ProductID,
			Requested:  item.Quantity,
			Available:  available,
			Sufficient: available >= item.Quantity,
		}
		if !line.Sufficient {
			result.OK = false
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

// Reserve is all-or-nothing: a failed line releases everything reserved so
// far before returning Unavailable.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []Item, actorID uuid.UUID) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	reserved := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		ok, err := s.move(ctx, tx, movement{
			productID:     item.ProductID,
			reservedDelta: item.Quantity,
			reason:        enums.StockMovementReasonOrderReserved,
			orderID:       &orderID,
			actorID:       &actorID,
		})
		if err != nil {
			return multierr.Append(err, s.rollbackReservations(ctx, tx, orderID, actorID, reserved))
		}
		if !ok {
			var failure error = pkgerrors.New(pkgerrors.CodeUnavailable, "insufficient stock to reserve").
				WithDetails(map[string]any{"product_id": item.ProductID})
			return multierr.Append(failure, s.rollbackReservations(ctx, tx, orderID, actorID, reserved))
		}
		reserved = append(reserved, item)
	}
	return nil
}

func (s *service) rollbackReservations(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID uuid.UUID, reserved []Item) error {
	var errs error
	for _, item := range reserved {
		_, err := s.move(ctx, tx, movement{
			productID:     item.ProductID,
			reservedDelta: -item.Quantity,
			reason:        enums.StockMovementReasonOrderReleased,
			orderID:       &orderID,
			actorID:       &actorID,
		})
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Release returns the order's outstanding reservation. No-op when nothing
// is held.
func (s *service) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID uuid.UUID) error {
	outstanding, err := s.ledger.WithTx(tx).OutstandingReservation(ctx, orderID)
	if err != nil {
		return err
	}
	for productID, qty := range outstanding {
		ok, err := s.move(ctx, tx, movement{
			productID:     productID,
			reservedDelta: -qty,
			reason:        enums.StockMovementReasonOrderReleased,
			orderID:       &orderID,
			actorID:       &actorID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInternal, "reservation counters out of sync").
				WithDetails(map[string]any{"product_id": productID})
		}
	}
	return nil
}

// Deduct removes the order quantities from on-hand stock, consuming any
// reservation held for the order first.
func (s *service) Deduct(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []Item, actorID uuid.UUID) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	outstanding, err := s.ledger.WithTx(tx).OutstandingReservation(ctx, orderID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		consumed := outstanding[item.ProductID]
		if consumed > item.Quantity {
			consumed = item.Quantity
		}
		ok, err := s.move(ctx, tx, movement{
			productID:     item.ProductID,
			delta:         -item.Quantity,
			reservedDelta: -consumed,
			reason:        enums.StockMovementReasonOrderDeducted,
			orderID:       &orderID,
			actorID:       &actorID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnavailable, "insufficient stock to deduct").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}
	return nil
}

// Refund restores previously deducted quantities after an admin cancels a
// confirmed order. Idempotent: already-refunded quantities are skipped.
func (s *service) Refund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actorID uuid.UUID) error {
	refundable, err := s.ledger.WithTx(tx).RefundableQuantities(ctx, orderID)
	if err != nil {
		return err
	}
	for productID, qty := range refundable {
		ok, err := s.move(ctx, tx, movement{
			productID: productID,
			delta:     qty,
			reason:    enums.StockMovementReasonOrderCancelRefund,
			orderID:   &orderID,
			actorID:   &actorID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInternal, "stock counters out of sync").
				WithDetails(map[string]any{"product_id": productID})
		}
	}
	return nil
}

// Adjust applies a manual movement outside any order.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if !manualReasons[input.Reason] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment reason")
	}

	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	var created *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		actorID := input.ActorID
		var note *string
		if input.Note != "" {
			note = &input.Note
		}
		row := &models.StockMovement{
			ProductID: input.ProductID,
			Delta:     input.Delta,
			Reason:    input.Reason,
			ActorID:   &actorID,
			Note:      note,
		}
		ok, err := s.apply(ctx, tx, row)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeUnavailable, "adjustment would leave stock below the reserved level")
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Movements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	return s.ledger.ListByProduct(ctx, productID, limit)
}

func (s *service) MovementsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	return s.ledger.ListByOrder(ctx, orderID)
}

func (s *service) AllMovements(ctx context.Context, limit int) ([]models.StockMovement, error) {
	return s.ledger.List(ctx, limit)
}

type movement struct {
	productID     uuid.UUID
	delta         int
	reservedDelta int
	reason        enums.StockMovementReason
	orderID       *uuid.UUID
	actorID       *uuid.UUID
}

func (s *service) move(ctx context.Context, tx *gorm.DB, m movement) (bool, error) {
	row := &models.StockMovement{
		ProductID:     m.productID,
		Delta:         m.delta,
		ReservedDelta: m.reservedDelta,
		Reason:        m.reason,
		ActorID:       m.actorID,
		OrderID:       m.orderID,
	}
	return s.apply(ctx, tx, row)
}

// apply bumps the product counters and appends the ledger row. The counter
// update is conditional; when its guard rejects the change nothing is
// written and false is returned.
func (s *service) apply(ctx context.Context, tx *gorm.DB, row *models.StockMovement) (bool, error) {
	ok, err := s.products.WithTx(tx).AdjustCounters(ctx, row.ProductID, row.Delta, row.ReservedDelta)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := s.ledger.WithTx(tx).Append(ctx, row); err != nil {
		return false, err
	}
	s.metrics.IncStockMovement(row.Reason.String())
	return true, nil
}
