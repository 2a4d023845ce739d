package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/internal/users"
	"github.com/ganeshkulfi/factory-backend/pkg/config"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the full pricing result for one (product, retailer, quantity)
// line. Only the four amounts at the bottom may reach a retailer; everything
// above them is server-internal and tagged out of serialization.
type Breakdown struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`

	Tier            enums.RetailerTier `json:"-"`
	BasePrice       decimal.Decimal    `json:"-"`
	OverridePrice   *decimal.Decimal   `json:"-"`
	EffectivePrice  decimal.Decimal    `json:"-"`
	DiscountPercent decimal.Decimal    `json:"-"`
	TaxPercent      decimal.Decimal    `json:"-"`

	FinalUnitPrice decimal.Decimal `json:"final_unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// RetailerView projects the breakdown onto the retailer-safe allow-list.
func (b *Breakdown) RetailerView() types.PriceQuoteView {
	return types.PriceQuoteView{
		ProductID:      b.ProductID,
		Quantity:       b.Quantity,
		FinalUnitPrice: b.FinalUnitPrice,
		DiscountAmount: b.DiscountAmount,
		TaxAmount:      b.TaxAmount,
		LineTotal:      b.LineTotal,
	}
}

// Service computes retailer pricing and manages tier overrides.
type Service interface {
	Calculate(ctx context.Context, productID, retailerID uuid.UUID, quantity int) (*Breakdown, error)
	CalculateForProduct(ctx context.Context, product *models.Product, tier enums.RetailerTier, quantity int) (*Breakdown, error)
	CreateOverride(ctx context.Context, input CreateOverrideInput) (*models.PriceOverride, error)
	ListOverrides(ctx context.Context, productID uuid.UUID) ([]models.PriceOverride, error)
	DeactivateOverride(ctx context.Context, id uuid.UUID) error
}

// CreateOverrideInput carries the fields needed to create a tier override.
type CreateOverrideInput struct {
	ProductID     uuid.UUID
	Tier          enums.RetailerTier
	OverridePrice decimal.Decimal
	ActorID       uuid.UUID
}

type service struct {
	overrides OverrideRepository
	products  products.Repository
	users     users.Repository
	cfg       config.PricingConfig
}

// NewService builds the pricing engine.
func NewService(overrides OverrideRepository, productRepo products.Repository, userRepo users.Repository, cfg config.PricingConfig) Service {
	return &service{
		overrides: overrides,
		products:  productRepo,
		users:     userRepo,
		cfg:       cfg,
	}
}

// QuantityDiscountPercent returns the wholesale discount step for a quantity.
func QuantityDiscountPercent(quantity int) decimal.Decimal {
	switch {
	case quantity >= 100:
		return decimal.NewFromInt(15)
	case quantity >= 50:
		return decimal.NewFromInt(10)
	case quantity >= 10:
		return decimal.NewFromInt(5)
	default:
		return decimal.Zero
	}
}

func (s *service) Calculate(ctx context.Context, productID, retailerID uuid.UUID, quantity int) (*Breakdown, error) {
	retailer, err := s.users.FindRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.CalculateForProduct(ctx, product, retailer.Tier, quantity)
}

// CalculateForProduct prices a line when the caller already holds the product
// row and the retailer tier, e.g. inside an order-creation transaction.
func (s *service) CalculateForProduct(ctx context.Context, product *models.Product, tier enums.RetailerTier, quantity int) (*Breakdown, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if quantity < product.MinOrderQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum order quantity").
			WithDetails(map[string]any{"min_order_qty": product.MinOrderQty})
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "product is not available")
	}
	if !tier.IsValid() {
		tier = enums.RetailerTierBasic
	}

	override, err := s.overrides.FindActive(ctx, product.ID, tier)
	if err != nil {
		return nil, err
	}

	effective := product.BasePrice
	var overridePrice *decimal.Decimal
	if override != nil {
		effective = override.OverridePrice
		price := override.OverridePrice
		overridePrice = &price
	}

	taxPercent := decimal.NewFromFloat(s.cfg.TaxPercent)
	discountPercent := QuantityDiscountPercent(quantity)

	// Each derived amount is rounded half-up to 2dp exactly once.
	discountAmount := effective.Mul(discountPercent).Div(hundred).Round(2)
	afterDiscount := effective.Sub(discountAmount)
	taxAmount := afterDiscount.Mul(taxPercent).Div(hundred).Round(2)
	finalUnit := afterDiscount.Add(taxAmount)
	lineTotal := finalUnit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	return &Breakdown{
		ProductID:       product.ID,
		Quantity:        quantity,
		Tier:            tier,
		BasePrice:       product.BasePrice,
		OverridePrice:   overridePrice,
		EffectivePrice:  effective,
		DiscountPercent: discountPercent,
		TaxPercent:      taxPercent,
		FinalUnitPrice:  finalUnit,
		DiscountAmount:  discountAmount,
		TaxAmount:       taxAmount,
		LineTotal:       lineTotal,
	}, nil
}

func (s *service) CreateOverride(ctx context.Context, input CreateOverrideInput) (*models.PriceOverride, error) {
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid retailer tier")
	}
	if !input.OverridePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "override price must be positive")
	}

	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	existing, err := s.overrides.FindActive(ctx, input.ProductID, input.Tier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active override already exists for this product and tier")
	}

	actorID := input.ActorID
	override := &models.PriceOverride{
		ID:            uuid.New(),
		ProductID:     input.ProductID,
		Tier:          input.Tier,
		OverridePrice: input.OverridePrice.Round(2),
		Active:        true,
		CreatedBy:     &actorID,
	}
	return s.overrides.Create(ctx, override)
}

func (s *service) ListOverrides(ctx context.Context, productID uuid.UUID) ([]models.PriceOverride, error) {
	return s.overrides.ListByProduct(ctx, productID)
}

func (s *service) DeactivateOverride(ctx context.Context, id uuid.UUID) error {
	return s.overrides.Deactivate(ctx, id)
}
