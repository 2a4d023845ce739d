package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// Repository defines persistence operations for the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, movement *models.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error)
	List(ctx context.Context, limit int) ([]models.StockMovement, error)
	// OutstandingReservation sums reserved_delta per product for the order.
	// Positive values are reservations not yet released or consumed.
	OutstandingReservation(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error)
	// RefundableQuantities sums what was deducted for the order minus what
	// has already been refunded, per product.
	RefundableQuantities(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error)
	// SumDeltas recomputes the ledger totals for one product.
	SumDeltas(ctx context.Context, productID uuid.UUID) (delta int, reservedDelta int, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	query := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type productSum struct {
	ProductID uuid.UUID
	Total     int
}

func (r *repository) OutstandingReservation(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	var sums []productSum
	err := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("product_id, COALESCE(SUM(reserved_delta), 0) AS total").
		Where("order_id = ?", orderID).
		Group("product_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]int, len(sums))
	for _, s := range sums {
		if s.Total > 0 {
			result[s.ProductID] = s.Total
		}
	}
	return result, nil
}

func (r *repository) RefundableQuantities(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	var sums []productSum
	err := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("product_id, COALESCE(SUM(-delta), 0) AS total").
		Where("order_id = ? AND reason IN ?", orderID, []enums.StockMovementReason{
			enums.StockMovementReasonOrderDeducted,
			enums.StockMovementReasonOrderCancelRefund,
		}).
		Group("product_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]int, len(sums))
	for _, s := range sums {
		if s.Total > 0 {
			result[s.ProductID] = s.Total
		}
	}
	return result, nil
}

func (r *repository) SumDeltas(ctx context.Context, productID uuid.UUID) (int, int, error) {
	type totals struct {
		Delta         int
		ReservedDelta int
	}
	var row totals
	err := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("COALESCE(SUM(delta), 0) AS delta, COALESCE(SUM(reserved_delta), 0) AS reserved_delta").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Delta, row.ReservedDelta, nil
}
