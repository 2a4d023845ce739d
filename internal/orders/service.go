package orders

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/internal/audit"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/internal/users"
	"github.com/ganeshkulfi/factory-backend/pkg/config"
	"github.com/ganeshkulfi/factory-backend/pkg/db"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/metrics"
	"github.com/ganeshkulfi/factory-backend/pkg/pagination"
	"github.com/ganeshkulfi/factory-backend/pkg/types"
)

const createAttempts = 3

// CreateItemInput is one requested order line.
type CreateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput carries a retailer's order submission.
type CreateInput struct {
	RetailerID     uuid.UUID
	Items          []CreateItemInput
	RetailerNotes  *string
	IdempotencyKey *string
}

// CreateResult reports the created order and whether an idempotency key
// replay returned an existing one instead.
type CreateResult struct {
	Order  *models.Order
	Reused bool
}

// Notifier is the downstream notification sink. Implemented by the
// notifications service.
type Notifier interface {
	Notify(ctx context.Context, order *models.Order, event models.OrderStatusEvent)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle: creation with server-side pricing,
// the status machine, fulfillment milestones and the stock interplay.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	GetForRetailer(ctx context.Context, retailerID, orderID uuid.UUID) (*models.Order, error)
	GetForRetailerByNumber(ctx context.Context, retailerID uuid.UUID, number string) (*models.Order, error)
	ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params) (pagination.Page[types.RetailerOrderView], error)
	Timeline(ctx context.Context, retailerID, orderID uuid.UUID) ([]types.TimelineEntryView, error)
	CancelByRetailer(ctx context.Context, retailerID, orderID uuid.UUID, reason *string) (*models.Order, error)

	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Order], error)
	StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)

	Confirm(ctx context.Context, orderID, adminID uuid.UUID, message *string) (*models.Order, error)
	Reject(ctx context.Context, orderID, adminID uuid.UUID, reason string) (*models.Order, error)
	CancelByAdmin(ctx context.Context, orderID, adminID uuid.UUID, reason string) (*models.Order, error)
	RecordFulfillment(ctx context.Context, orderID, adminID uuid.UUID, event enums.FulfillmentEvent, message *string) (*models.Order, error)
	UpdatePayment(ctx context.Context, orderID, adminID uuid.UUID, status enums.PaymentStatus) (*models.Order, error)
	Reserve(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error)
	Release(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error)
}

// Deps wires the order service's collaborators. Notifier and Metrics are
// optional.
type Deps struct {
	Repo      Repository
	Users     users.Repository
	Products  products.Repository
	Pricing   pricing.Service
	Inventory inventory.Service
	Audit     audit.Service
	Notifier  Notifier
	Tx        txRunner
	Metrics   *metrics.OrderMetrics
	Cfg       config.PricingConfig
}

type service struct {
	repo      Repository
	users     users.Repository
	products  products.Repository
	pricing   pricing.Service
	inventory inventory.Service
	audit     audit.Service
	notifier  Notifier
	tx        txRunner
	metrics   *metrics.OrderMetrics
	cfg       config.PricingConfig
}

// NewService builds the order service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil || deps.Users == nil || deps.Products == nil ||
		deps.Pricing == nil || deps.Inventory == nil || deps.Audit == nil || deps.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders dependencies required")
	}
	return &service{
		repo:      deps.Repo,
		users:     deps.Users,
		products:  deps.Products,
		pricing:   deps.Pricing,
		inventory: deps.Inventory,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		tx:        deps.Tx,
		metrics:   deps.Metrics,
		cfg:       deps.Cfg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	start := time.Now()
	result, err := s.create(ctx, input)

	outcome := "created"
	switch {
	case err != nil:
		outcome = "failed"
	case result.Reused:
		outcome = "reused"
	}
	s.metrics.IncCreated(outcome)
	s.metrics.ObserveCreateDuration(outcome, time.Since(start))
	return result, err
}

func (s *service) create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	retailer, err := s.users.FindRetailer(ctx, input.RetailerID)
	if err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, input.RetailerID, *input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := matchesExisting(existing, input); err != nil {
				return nil, err
			}
			return &CreateResult{Order: existing, Reused: true}, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		order, event, err := s.createOnce(ctx, retailer, input)
		if err == nil {
			if event != nil {
				s.notify(ctx, order, *event)
			}
			return &CreateResult{Order: order, Reused: false}, nil
		}

		// A concurrent request with the same key committed first: return
		// its order instead of failing.
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "idempotency_key") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, input.RetailerID, *input.IdempotencyKey)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				if err := matchesExisting(existing, input); err != nil {
					return nil, err
				}
				return &CreateResult{Order: existing, Reused: true}, nil
			}
			return nil, err
		}

		// An order number collision just means the entropy repeated, retry
		// with a fresh one.
		if db.IsUniqueViolation(err, "order_number") {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "could not allocate an order number")
}

func (s *service) validateCreateInput(input CreateInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if s.cfg.MaxItemsPerCart > 0 && len(input.Items) > s.cfg.MaxItemsPerCart {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many items in order").
			WithDetails(map[string]any{"max_items": s.cfg.MaxItemsPerCart})
	}
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if seen[item.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		seen[item.ProductID] = true
	}
	return nil
}

// matchesExisting rejects an idempotency key replay whose payload differs
// from the order the key originally created.
func matchesExisting(existing *models.Order, input CreateInput) error {
	mismatch := pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key was already used with a different payload")
	if len(existing.Items) != len(input.Items) {
		return mismatch
	}
	quantities := make(map[uuid.UUID]int, len(existing.Items))
	for _, item := range existing.Items {
		quantities[item.ProductID] = item.Quantity
	}
	for _, item := range input.Items {
		if quantities[item.ProductID] != item.Quantity {
			return mismatch
		}
	}
	return nil
}

func (s *service) createOnce(ctx context.Context, retailer *models.User, input CreateInput) (*models.Order, *models.OrderStatusEvent, error) {
	number, err := s.newOrderNumber(time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}

	var order *models.Order
	var event *models.OrderStatusEvent
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.ProductID)
		}
		catalog, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		built, err := s.priceOrder(ctx, retailer, input, catalog)
		if err != nil {
			return err
		}
		built.OrderNumber = number

		if err := s.repo.WithTx(tx).Create(ctx, built); err != nil {
			return err
		}

		recorded, err := s.audit.Record(ctx, tx, audit.RecordInput{
			OrderID:   built.ID,
			NewStatus: enums.OrderStatusPending,
			ActorID:   &retailer.ID,
			ActorRole: enums.UserRoleRetailer,
		})
		if err != nil {
			return err
		}

		order = built
		event = recorded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, event, nil
}

// priceOrder prices every line server-side and assembles the order row.
// Client-supplied prices never enter here.
func (s *service) priceOrder(ctx context.Context, retailer *models.User, input CreateInput, catalog map[uuid.UUID]models.Product) (*models.Order, error) {
	order := &models.Order{
		ID:             uuid.New(),
		RetailerID:     retailer.ID,
		RetailerEmail:  retailer.Email,
		RetailerName:   retailer.Name,
		ShopName:       retailer.ShopName,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusUnpaid,
		RetailerNotes:  input.RetailerNotes,
		IdempotencyKey: input.IdempotencyKey,
		TaxPercent:     decimal.NewFromFloat(s.cfg.TaxPercent),
	}

	grossSubtotal := decimal.Zero
	discountTotal := decimal.Zero
	taxTotal := decimal.Zero
	subtotal := decimal.Zero

	var lastBreakdown *pricing.Breakdown
	for _, item := range input.Items {
		product, ok := catalog[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if available := product.AvailableQuantity(); item.Quantity > available {
			return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "requested quantity unavailable").
				WithDetails(map[string]any{
					"product_id": item.ProductID,
					"requested":  item.Quantity,
					"available":  available,
				})
		}

		breakdown, err := s.pricing.CalculateForProduct(ctx, &product, retailer.Tier, item.Quantity)
		if err != nil {
			return nil, err
		}
		lastBreakdown = breakdown

		qty := decimal.NewFromInt(int64(item.Quantity))
		grossSubtotal = grossSubtotal.Add(breakdown.EffectivePrice.Mul(qty))
		discountTotal = discountTotal.Add(breakdown.DiscountAmount.Mul(qty))
		taxTotal = taxTotal.Add(breakdown.TaxAmount.Mul(qty))
		subtotal = subtotal.Add(breakdown.LineTotal)

		order.Items = append(order.Items, models.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			UnitPrice:       breakdown.FinalUnitPrice,
			DiscountAmount:  breakdown.DiscountAmount,
			TaxAmount:       breakdown.TaxAmount,
			LineTotal:       breakdown.LineTotal,
			BasePrice:       breakdown.BasePrice,
			OverridePrice:   breakdown.OverridePrice,
			DiscountPercent: breakdown.DiscountPercent,
		})
		order.TotalQuantity += item.Quantity
	}

	order.ItemCount = len(order.Items)

	// Subtotal is the sum of line totals, and discount/tax are already inside
	// each line, so the grand total equals the subtotal. The pre-discount
	// aggregate stays server side: grand = gross - discount + tax.
	order.Subtotal = subtotal.Round(2)
	order.GrossSubtotal = grossSubtotal.Round(2)
	order.DiscountTotal = discountTotal.Round(2)
	order.TaxTotal = taxTotal.Round(2)
	order.GrandTotal = order.Subtotal

	// The header breakdown columns only describe a single-line order; a
	// multi-line order keeps the detail on its items.
	if len(order.Items) == 1 && lastBreakdown != nil {
		base := lastBreakdown.BasePrice
		discount := lastBreakdown.DiscountPercent
		order.BasePrice = &base
		order.OverridePrice = lastBreakdown.OverridePrice
		order.DiscountPercent = &discount
	}
	return order, nil
}

func (s *service) newOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not generate order number")
	}
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)[:6]
	return fmt.Sprintf("%s-%s-%s", s.cfg.OrderNumPrefix, now.Format("20060102"), suffix), nil
}

func (s *service) GetForRetailer(ctx context.Context, retailerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RetailerID != retailerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GetForRetailerByNumber resolves an order by its human-readable number.
// Orders belonging to another retailer read as not found.
func (s *service) GetForRetailerByNumber(ctx context.Context, retailerID uuid.UUID, number string) (*models.Order, error) {
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.RetailerID != retailerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params) (pagination.Page[types.RetailerOrderView], error) {
	filters.RetailerID = &retailerID
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[types.RetailerOrderView]{}, err
	}
	return pagination.NewPage(RetailerViews(rows), params, total), nil
}

func (s *service) Timeline(ctx context.Context, retailerID, orderID uuid.UUID) ([]types.TimelineEntryView, error) {
	if _, err := s.GetForRetailer(ctx, retailerID, orderID); err != nil {
		return nil, err
	}
	return s.audit.Timeline(ctx, orderID)
}

func (s *service) CancelByRetailer(ctx context.Context, retailerID, orderID uuid.UUID, reason *string) (*models.Order, error) {
	if _, err := s.GetForRetailer(ctx, retailerID, orderID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.runTransition(ctx, orderID, transition{
		to:        enums.OrderStatusCancelled,
		actorID:   retailerID,
		actorRole: enums.UserRoleRetailer,
		reason:    reason,
		updates: map[string]any{
			"cancelled_by":        retailerID,
			"cancelled_at":        now,
			"cancellation_reason": reason,
		},
		stock: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			return s.inventory.Release(ctx, tx, order.ID, retailerID)
		},
	})
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	return s.repo.FindByNumber(ctx, number)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[models.Order], error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.NewPage(rows, params, total), nil
}

func (s *service) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	return s.repo.StatusCounts(ctx)
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, orderID)
}

func (s *service) Confirm(ctx context.Context, orderID, adminID uuid.UUID, message *string) (*models.Order, error) {
	now := time.Now().UTC()
	return s.runTransition(ctx, orderID, transition{
		to:        enums.OrderStatusConfirmed,
		actorID:   adminID,
		actorRole: enums.UserRoleAdmin,
		message:   message,
		updates: map[string]any{
			"confirmed_by":         adminID,
			"confirmed_at":         now,
			"confirmation_message": message,
		},
		stock: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			return s.inventory.Deduct(ctx, tx, order.ID, orderItems(order), adminID)
		},
	})
}

func (s *service) Reject(ctx context.Context, orderID, adminID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	now := time.Now().UTC()
	return s.runTransition(ctx, orderID, transition{
		to:        enums.OrderStatusRejected,
		actorID:   adminID,
		actorRole: enums.UserRoleAdmin,
		reason:    &reason,
		updates: map[string]any{
			"rejected_by":      adminID,
			"rejected_at":      now,
			"rejection_reason": reason,
		},
		stock: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			return s.inventory.Release(ctx, tx, order.ID, adminID)
		},
	})
}

// CancelByAdmin is idempotent: cancelling an already admin-cancelled order
// returns it unchanged.
func (s *service) CancelByAdmin(ctx context.Context, orderID, adminID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == enums.OrderStatusCancelledAdmin {
		return current, nil
	}
	if current.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already in a terminal state").
			WithDetails(map[string]any{"status": current.Status})
	}

	now := time.Now().UTC()
	return s.runTransition(ctx, orderID, transition{
		to:        enums.OrderStatusCancelledAdmin,
		actorID:   adminID,
		actorRole: enums.UserRoleAdmin,
		reason:    &reason,
		updates: map[string]any{
			"cancelled_by":        adminID,
			"cancelled_at":        now,
			"cancellation_reason": reason,
		},
		stock: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			// A confirmed order already consumed stock, so it refunds; a
			// pending one only drops whatever hold it had.
			if order.Status == enums.OrderStatusConfirmed {
				return s.inventory.Refund(ctx, tx, order.ID, adminID)
			}
			return s.inventory.Release(ctx, tx, order.ID, adminID)
		},
	})
}

func (s *service) RecordFulfillment(ctx context.Context, orderID, adminID uuid.UUID, event enums.FulfillmentEvent, message *string) (*models.Order, error) {
	if !event.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment event")
	}

	if event == enums.FulfillmentEventDelivered {
		now := time.Now().UTC()
		milestone := event
		return s.runTransition(ctx, orderID, transition{
			to:        enums.OrderStatusCompleted,
			actorID:   adminID,
			actorRole: enums.UserRoleAdmin,
			milestone: &milestone,
			message:   message,
			updates: map[string]any{
				"completed_at": now,
			},
		})
	}

	var updated *models.Order
	var recorded *models.OrderStatusEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfillment events require a confirmed order")
		}

		milestone := event
		status := order.Status
		recorded, err = s.audit.Record(ctx, tx, audit.RecordInput{
			OrderID:   order.ID,
			OldStatus: &status,
			NewStatus: order.Status,
			Milestone: &milestone,
			ActorID:   &adminID,
			ActorRole: enums.UserRoleAdmin,
			Message:   message,
		})
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if recorded != nil {
		s.notify(ctx, updated, *recorded)
	}
	return updated, nil
}

func (s *service) UpdatePayment(ctx context.Context, orderID, adminID uuid.UUID, status enums.PaymentStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	reason := "payment update"
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enums.OrderStatusRejected, enums.OrderStatusCancelled, enums.OrderStatusCancelledAdmin:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment cannot change on a closed order")
		}
		if err := repo.UpdatePaymentStatus(ctx, orderID, status); err != nil {
			return err
		}

		// Recorded for the admin history; the curated retailer timeline
		// drops same-status bookkeeping rows like this one.
		current := order.Status
		message := "payment marked " + status.String()
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			OrderID:   order.ID,
			OldStatus: &current,
			NewStatus: order.Status,
			ActorID:   &adminID,
			ActorRole: enums.UserRoleAdmin,
			Reason:    &reason,
			Message:   &message,
		}); err != nil {
			return err
		}

		order.PaymentStatus = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Reserve(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error) {
	return s.holdOperation(ctx, orderID, adminID, "stock reserved", func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
		return s.inventory.Reserve(ctx, tx, order.ID, orderItems(order), adminID)
	})
}

func (s *service) Release(ctx context.Context, orderID, adminID uuid.UUID) (*models.Order, error) {
	return s.holdOperation(ctx, orderID, adminID, "reservation released", func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
		return s.inventory.Release(ctx, tx, order.ID, adminID)
	})
}

// holdOperation runs an explicit stock hold against a pending order. The
// audit row it writes is a same-status entry, visible in the admin history
// only.
func (s *service) holdOperation(ctx context.Context, orderID, adminID uuid.UUID, reason string, stock func(ctx context.Context, tx *gorm.DB, order *models.Order) error) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock holds apply to pending orders only")
		}
		if err := stock(ctx, tx, order); err != nil {
			return err
		}

		current := order.Status
		if _, err := s.audit.Record(ctx, tx, audit.RecordInput{
			OrderID:   order.ID,
			OldStatus: &current,
			NewStatus: order.Status,
			ActorID:   &adminID,
			ActorRole: enums.UserRoleAdmin,
			Reason:    &reason,
		}); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// transition describes one status machine edge to apply.
type transition struct {
	to        enums.OrderStatus
	actorID   uuid.UUID
	actorRole enums.UserRole
	milestone *enums.FulfillmentEvent
	reason    *string
	message   *string
	updates   map[string]any
	stock     func(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// runTransition applies a status change with a compare-and-set guard, runs
// the stock side effect in the same transaction and records the audit row.
// A concurrent transition losing the race surfaces as a state conflict.
func (s *service) runTransition(ctx context.Context, orderID uuid.UUID, t transition) (*models.Order, error) {
	var updated *models.Order
	var recorded *models.OrderStatusEvent
	var from enums.OrderStatus

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		if !order.Status.CanTransitionTo(t.to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order cannot move from %s to %s", order.Status, t.to)).
				WithDetails(map[string]any{"current_status": order.Status, "requested_status": t.to})
		}

		ok, err := repo.TransitionStatus(ctx, orderID, order.Status, t.to, t.updates)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently")
		}

		if t.stock != nil {
			if err := t.stock(ctx, tx, order); err != nil {
				return err
			}
		}

		recorded, err = s.audit.Record(ctx, tx, audit.RecordInput{
			OrderID:   order.ID,
			OldStatus: &from,
			NewStatus: t.to,
			Milestone: t.milestone,
			ActorID:   &t.actorID,
			ActorRole: t.actorRole,
			Reason:    t.reason,
			Message:   t.message,
		})
		if err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), t.to.String())
	if recorded != nil {
		s.notify(ctx, updated, *recorded)
	}
	return updated, nil
}

func (s *service) notify(ctx context.Context, order *models.Order, event models.OrderStatusEvent) {
	if s.notifier == nil || order == nil {
		return
	}
	s.notifier.Notify(ctx, order, event)
}

func orderItems(order *models.Order) []inventory.Item {
	items := make([]inventory.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, inventory.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return items
}
