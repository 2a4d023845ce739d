package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
)

// OverrideRepository defines persistence operations for tier price overrides.
type OverrideRepository interface {
	WithTx(tx *gorm.DB) OverrideRepository
	FindActive(ctx context.Context, productID uuid.UUID, tier enums.RetailerTier) (*models.PriceOverride, error)
	Create(ctx context.Context, override *models.PriceOverride) (*models.PriceOverride, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceOverride, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type overrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository builds an override repository bound to the provided DB.
func NewOverrideRepository(db *gorm.DB) OverrideRepository {
	return &overrideRepository{db: db}
}

func (r *overrideRepository) WithTx(tx *gorm.DB) OverrideRepository {
	if tx == nil {
		return r
	}
	return &overrideRepository{db: tx}
}

// FindActive returns nil without error when no active override exists for
// the pair. An absent override is the normal case, not a failure.
func (r *overrideRepository) FindActive(ctx context.Context, productID uuid.UUID, tier enums.RetailerTier) (*models.PriceOverride, error) {
	var override models.PriceOverride
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND tier = ? AND active = ?", productID, tier, true).
		First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r *overrideRepository) Create(ctx context.Context, override *models.PriceOverride) (*models.PriceOverride, error) {
	if err := r.db.WithContext(ctx).Create(override).Error; err != nil {
		return nil, err
	}
	return override, nil
}

func (r *overrideRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.PriceOverride, error) {
	var overrides []models.PriceOverride
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *overrideRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.PriceOverride{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "active price override not found")
	}
	return nil
}
