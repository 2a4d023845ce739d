package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
	// AdjustCounters applies the deltas with a conditional update that keeps
	// both counters non-negative and available stock covered. Returns false
	// when the guard rejects the change.
	AdjustCounters(ctx context.Context, productID uuid.UUID, delta, reservedDelta int) (bool, error)
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Category      string
	AvailableOnly bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	var rows []models.Product
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AdjustCounters(ctx context.Context, productID uuid.UUID, delta, reservedDelta int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Where("stock_quantity + ? >= 0", delta).
		Where("reserved_quantity + ? >= 0", reservedDelta).
		Where("stock_quantity + ? >= reserved_quantity + ?", delta, reservedDelta).
		Updates(map[string]any{
			"stock_quantity":    gorm.Expr("stock_quantity + ?", delta),
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", reservedDelta),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
