package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
)

// Repository defines persistence operations for order status events. The
// table is append-only except for the notification flag.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, event *models.OrderStatusEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
	ListByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderStatusEvent, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusEvent, error)
	ListUnnotified(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderStatusEvent, error)
	MarkNotified(ctx context.Context, eventIDs []int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, event *models.OrderStatusEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	var rows []models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderStatusEvent, error) {
	result := make(map[uuid.UUID][]models.OrderStatusEvent, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	var rows []models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OrderID] = append(result[row.OrderID], row)
	}
	return result, nil
}

func (r *repository) Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusEvent, error) {
	var row models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListUnnotified(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderStatusEvent, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id IN ? AND notification_sent = ?", orderIDs, false).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkNotified(ctx context.Context, eventIDs []int64) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.OrderStatusEvent{}).
		Where("id IN ?", eventIDs).
		Update("notification_sent", true).Error
}
