package orders

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/internal/audit"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/internal/users"
	"github.com/ganeshkulfi/factory-backend/pkg/config"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db  *gorm.DB
	svc Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.PriceOverride{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockMovement{},
		&models.OrderStatusEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.PricingConfig{TaxPercent: 18, OrderNumPrefix: "GK", MaxItemsPerCart: 50}
	runner := gormTxRunner{db: gdb}
	userRepo := users.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	pricingSvc := pricing.NewService(pricing.NewOverrideRepository(gdb), productRepo, userRepo, cfg)
	inventorySvc := inventory.NewService(inventory.NewRepository(gdb), productRepo, runner, nil)
	auditSvc := audit.NewService(audit.NewRepository(gdb))

	svc, err := NewService(Deps{
		Repo:      NewRepository(gdb),
		Users:     userRepo,
		Products:  productRepo,
		Pricing:   pricingSvc,
		Inventory: inventorySvc,
		Audit:     auditSvc,
		Tx:        runner,
		Cfg:       cfg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{db: gdb, svc: svc}
}

func (e *testEnv) seedRetailer(t *testing.T, tier enums.RetailerTier) *models.User {
	t.Helper()
	shop := "Sharma General Store"
	user := &models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@shop.test",
		Name:     "Asha Sharma",
		Role:     enums.UserRoleRetailer,
		ShopName: &shop,
		Tier:     tier,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("seed retailer: %v", err)
	}
	return user
}

func (e *testEnv) seedAdmin(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@factory.test",
		Name:  "Ganesh",
		Role:  enums.UserRoleAdmin,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return user
}

func (e *testEnv) seedProduct(t *testing.T, basePrice string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Kesar Kulfi",
		BasePrice:     decimal.RequireFromString(basePrice),
		Category:      "kulfi",
		IsAvailable:   true,
		StockQuantity: stock,
		MinOrderQty:   1,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if stock > 0 {
		seed := &models.StockMovement{
			ProductID: product.ID,
			Delta:     stock,
			Reason:    enums.StockMovementReasonInitialStock,
		}
		if err := e.db.Create(seed).Error; err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}
	return product
}

func (e *testEnv) seedOverride(t *testing.T, productID uuid.UUID, tier enums.RetailerTier, price string) {
	t.Helper()
	override := &models.PriceOverride{
		ID:            uuid.New(),
		ProductID:     productID,
		Tier:          tier,
		OverridePrice: decimal.RequireFromString(price),
		Active:        true,
	}
	if err := e.db.Create(override).Error; err != nil {
		t.Fatalf("seed override: %v", err)
	}
}

func (e *testEnv) reloadProduct(t *testing.T, id uuid.UUID) *models.Product {
	t.Helper()
	var product models.Product
	if err := e.db.Where("id = ?", id).First(&product).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &product
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateOrderPricesServerSide(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierSilver)
	product := env.seedProduct(t, "100.00", 50)
	env.seedOverride(t, product.ID, enums.RetailerTierSilver, "90.00")

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 12}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Reused {
		t.Fatal("fresh order reported as reused")
	}

	order := result.Order
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "GK-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.ItemCount != 1 || order.TotalQuantity != 12 {
		t.Fatalf("unexpected counts: %d items, %d units", order.ItemCount, order.TotalQuantity)
	}

	assertDecimal(t, order.Subtotal, "1210.68", "subtotal")
	assertDecimal(t, order.GrossSubtotal, "1080.00", "gross subtotal")
	assertDecimal(t, order.DiscountTotal, "54.00", "discount total")
	assertDecimal(t, order.TaxTotal, "184.68", "tax total")
	assertDecimal(t, order.GrandTotal, "1210.68", "grand total")

	lineSum := decimal.Zero
	for _, line := range order.Items {
		lineSum = lineSum.Add(line.LineTotal)
	}
	if !lineSum.Equal(order.Subtotal) {
		t.Fatalf("line totals sum to %s, subtotal is %s", lineSum, order.Subtotal)
	}
	if want := order.GrossSubtotal.Sub(order.DiscountTotal).Add(order.TaxTotal); !order.GrandTotal.Equal(want) {
		t.Fatalf("grand total %s, gross-discount+tax gives %s", order.GrandTotal, want)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	assertDecimal(t, item.UnitPrice, "100.89", "unit price")
	assertDecimal(t, item.DiscountAmount, "4.50", "discount amount")
	assertDecimal(t, item.TaxAmount, "15.39", "tax amount")
	assertDecimal(t, item.LineTotal, "1210.68", "line total")
	assertDecimal(t, item.BasePrice, "100.00", "base price snapshot")
	if item.OverridePrice == nil {
		t.Fatal("expected override price snapshot")
	}
	assertDecimal(t, *item.OverridePrice, "90.00", "override price snapshot")

	if order.BasePrice == nil || order.DiscountPercent == nil {
		t.Fatal("expected header breakdown for a single line order")
	}
	assertDecimal(t, *order.DiscountPercent, "5", "header discount percent")

	history, err := env.svc.History(ctx, order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].NewStatus != enums.OrderStatusPending {
		t.Fatalf("expected one pending audit row, got %+v", history)
	}

	// Creation only validates stock, it does not move it.
	fresh := env.reloadProduct(t, product.ID)
	if fresh.StockQuantity != 50 || fresh.ReservedQuantity != 0 {
		t.Fatalf("creation moved stock: %d/%d", fresh.StockQuantity, fresh.ReservedQuantity)
	}
}

func TestCreateIdempotencyKeyReplay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	product := env.seedProduct(t, "40.00", 100)
	key := uuid.NewString()

	first, err := env.svc.Create(ctx, CreateInput{
		RetailerID:     retailer.ID,
		Items:          []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
		IdempotencyKey: &key,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	replay, err := env.svc.Create(ctx, CreateInput{
		RetailerID:     retailer.ID,
		Items:          []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
		IdempotencyKey: &key,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Reused {
		t.Fatal("expected replay to reuse the original order")
	}
	if replay.Order.ID != first.Order.ID {
		t.Fatalf("replay returned a different order: %s vs %s", replay.Order.ID, first.Order.ID)
	}

	var count int64
	if err := env.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 order, got %d", count)
	}

	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID:     retailer.ID,
		Items:          []CreateItemInput{{ProductID: product.ID, Quantity: 9}},
		IdempotencyKey: &key,
	})
	assertCode(t, err, pkgerrors.CodeIdempotency)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	product := env.seedProduct(t, "40.00", 10)

	_, err := env.svc.Create(ctx, CreateInput{RetailerID: retailer.ID})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 0}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items: []CreateItemInput{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 11}},
	})
	assertCode(t, err, pkgerrors.CodeUnavailable)

	admin := env.seedAdmin(t)
	_, err = env.svc.Create(ctx, CreateInput{
		RetailerID: admin.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestConfirmDeductsStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 12}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	message := "dispatching tomorrow"
	confirmed, err := env.svc.Confirm(ctx, result.Order.ID, admin.ID, &message)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil || confirmed.ConfirmedBy == nil || *confirmed.ConfirmedBy != admin.ID {
		t.Fatal("expected confirmation stamps")
	}

	fresh := env.reloadProduct(t, product.ID)
	if fresh.StockQuantity != 88 {
		t.Fatalf("expected stock 88 after deduction, got %d", fresh.StockQuantity)
	}

	_, err = env.svc.Confirm(ctx, result.Order.ID, admin.ID, nil)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestConfirmFailsOnInsufficientStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 10)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Stock drains between creation and confirmation.
	if err := env.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("stock_quantity", 5).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err = env.svc.Confirm(ctx, result.Order.ID, admin.ID, nil)
	assertCode(t, err, pkgerrors.CodeUnavailable)

	// The failed transition rolled back wholesale.
	reloaded, err := env.svc.Get(ctx, result.Order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPending {
		t.Fatalf("expected order back to pending, got %s", reloaded.Status)
	}
}

func TestRejectReleasesHold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Reserve(ctx, result.Order.ID, admin.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	held := env.reloadProduct(t, product.ID)
	if held.ReservedQuantity != 10 {
		t.Fatalf("expected 10 reserved, got %d", held.ReservedQuantity)
	}

	_, err = env.svc.Reject(ctx, result.Order.ID, admin.ID, "")
	assertCode(t, err, pkgerrors.CodeValidation)

	rejected, err := env.svc.Reject(ctx, result.Order.ID, admin.ID, "flavour out of season")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.OrderStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "flavour out of season" {
		t.Fatal("expected rejection reason persisted")
	}

	fresh := env.reloadProduct(t, product.ID)
	if fresh.StockQuantity != 100 || fresh.ReservedQuantity != 0 {
		t.Fatalf("expected hold released, got %d/%d", fresh.StockQuantity, fresh.ReservedQuantity)
	}
}

func TestRetailerCancel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	other := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.svc.CancelByRetailer(ctx, other.ID, result.Order.ID, nil)
	assertCode(t, err, pkgerrors.CodeNotFound)

	reason := "ordered by mistake"
	cancelled, err := env.svc.CancelByRetailer(ctx, retailer.ID, result.Order.ID, &reason)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// A confirmed order is out of the retailer's hands.
	second, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, second.Order.ID, admin.ID, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err = env.svc.CancelByRetailer(ctx, retailer.ID, second.Order.ID, nil)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminCancelRefundsConfirmedOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 20}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, result.Order.ID, admin.ID, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if env.reloadProduct(t, product.ID).StockQuantity != 80 {
		t.Fatal("expected stock deducted before cancellation")
	}

	cancelled, err := env.svc.CancelByAdmin(ctx, result.Order.ID, admin.ID, "festival closure")
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelledAdmin {
		t.Fatalf("expected cancelled_admin, got %s", cancelled.Status)
	}

	fresh := env.reloadProduct(t, product.ID)
	if fresh.StockQuantity != 100 {
		t.Fatalf("expected stock refunded to 100, got %d", fresh.StockQuantity)
	}

	// Second cancel is a no-op, not a conflict, and refunds nothing twice.
	again, err := env.svc.CancelByAdmin(ctx, result.Order.ID, admin.ID, "festival closure")
	if err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if again.Status != enums.OrderStatusCancelledAdmin {
		t.Fatalf("expected cancelled_admin, got %s", again.Status)
	}
	if env.reloadProduct(t, product.ID).StockQuantity != 100 {
		t.Fatal("repeat cancel moved stock")
	}
}

func TestAdminCancelRejectsTerminalOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Reject(ctx, result.Order.ID, admin.ID, "out of season"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err = env.svc.CancelByAdmin(ctx, result.Order.ID, admin.ID, "festival closure")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict cancelling a rejected order, got %v", err)
	}
}

func TestGetOrderByNumber(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	number := result.Order.OrderNumber

	owned, err := env.svc.GetForRetailerByNumber(ctx, retailer.ID, number)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if owned.ID != result.Order.ID {
		t.Fatalf("resolved the wrong order: %s", owned.ID)
	}
	if len(owned.Items) != 1 {
		t.Fatalf("expected order lines preloaded, got %d", len(owned.Items))
	}

	// Another retailer's number reads as not found, not forbidden.
	if _, err := env.svc.GetForRetailerByNumber(ctx, uuid.New(), number); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign retailer, got %v", err)
	}

	admin, err := env.svc.GetByNumber(ctx, number)
	if err != nil {
		t.Fatalf("admin get by number: %v", err)
	}
	if admin.ID != result.Order.ID {
		t.Fatalf("resolved the wrong order: %s", admin.ID)
	}

	if _, err := env.svc.GetByNumber(ctx, "GK-20260831-XXXXXX"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown number, got %v", err)
	}
	if _, err := env.svc.GetByNumber(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty number, got %v", err)
	}
}

func TestFulfillmentMilestones(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.svc.RecordFulfillment(ctx, result.Order.ID, admin.ID, enums.FulfillmentEventPacked, nil)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	if _, err := env.svc.Confirm(ctx, result.Order.ID, admin.ID, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	packed, err := env.svc.RecordFulfillment(ctx, result.Order.ID, admin.ID, enums.FulfillmentEventPacked, nil)
	if err != nil {
		t.Fatalf("packed: %v", err)
	}
	if packed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("packed must not change status, got %s", packed.Status)
	}
	if _, err := env.svc.RecordFulfillment(ctx, result.Order.ID, admin.ID, enums.FulfillmentEventOutForDelivery, nil); err != nil {
		t.Fatalf("out for delivery: %v", err)
	}

	delivered, err := env.svc.RecordFulfillment(ctx, result.Order.ID, admin.ID, enums.FulfillmentEventDelivered, nil)
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if delivered.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed after delivery, got %s", delivered.Status)
	}
	if delivered.CompletedAt == nil {
		t.Fatal("expected completed_at stamp")
	}

	timeline, err := env.svc.Timeline(ctx, retailer.ID, result.Order.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	labels := make([]string, 0, len(timeline))
	for _, entry := range timeline {
		labels = append(labels, entry.Label)
	}
	want := []string{"Order placed", "Order confirmed", "Order packed", "Out for delivery", "Delivered"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d timeline entries, got %v", len(want), labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("timeline mismatch at %d: expected %q, got %q", i, want[i], labels[i])
		}
	}
}

func TestUpdatePaymentStaysOffTimeline(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 100)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := env.svc.UpdatePayment(ctx, result.Order.ID, admin.ID, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}

	history, err := env.svc.History(ctx, result.Order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected payment row in history, got %d rows", len(history))
	}

	timeline, err := env.svc.Timeline(ctx, retailer.ID, result.Order.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(timeline) != 1 {
		t.Fatalf("payment bookkeeping leaked into the timeline: %+v", timeline)
	}

	if _, err := env.svc.CancelByAdmin(ctx, result.Order.ID, admin.ID, "duplicate order"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = env.svc.UpdatePayment(ctx, result.Order.ID, admin.ID, enums.PaymentStatusUnpaid)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestReserveAndRelease(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 10)

	result, err := env.svc.Create(ctx, CreateInput{
		RetailerID: retailer.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Reserve(ctx, result.Order.ID, admin.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	held := env.reloadProduct(t, product.ID)
	if held.ReservedQuantity != 8 || held.StockQuantity != 10 {
		t.Fatalf("expected 8 reserved of 10, got %d/%d", held.ReservedQuantity, held.StockQuantity)
	}

	// The reservation is consumed, not doubled, on confirmation.
	if _, err := env.svc.Confirm(ctx, result.Order.ID, admin.ID, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	fresh := env.reloadProduct(t, product.ID)
	if fresh.StockQuantity != 2 || fresh.ReservedQuantity != 0 {
		t.Fatalf("expected 2/0 after confirm, got %d/%d", fresh.StockQuantity, fresh.ReservedQuantity)
	}

	_, err = env.svc.Reserve(ctx, result.Order.ID, admin.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestListForRetailerNeverLeaksInternals(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierSilver)
	other := env.seedRetailer(t, enums.RetailerTierBasic)
	product := env.seedProduct(t, "100.00", 200)
	env.seedOverride(t, product.ID, enums.RetailerTierSilver, "90.00")

	for _, qty := range []int{2, 12} {
		if _, err := env.svc.Create(ctx, CreateInput{
			RetailerID: retailer.ID,
			Items:      []CreateItemInput{{ProductID: product.ID, Quantity: qty}},
		}); err != nil {
			t.Fatalf("create qty %d: %v", qty, err)
		}
	}
	if _, err := env.svc.Create(ctx, CreateInput{
		RetailerID: other.ID,
		Items:      []CreateItemInput{{ProductID: product.ID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	page, err := env.svc.ListForRetailer(ctx, retailer.ID, ListFilters{}, pagination.Params{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalCount != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 orders for retailer, got %d", page.TotalCount)
	}

	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, leaked := range []string{"base_price", "override_price", "discount_percent", "tax_percent", "effective_price", "idempotency_key", "retailer_email"} {
		if strings.Contains(body, leaked) {
			t.Fatalf("retailer listing leaked %q: %s", leaked, body)
		}
	}
	for _, required := range []string{"order_number", "grand_total", "unit_price", "line_total"} {
		if !strings.Contains(body, required) {
			t.Fatalf("retailer listing missing %q", required)
		}
	}
}

func TestListFiltersAndCounts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	retailer := env.seedRetailer(t, enums.RetailerTierBasic)
	admin := env.seedAdmin(t)
	product := env.seedProduct(t, "40.00", 500)

	var confirmed uuid.UUID
	for i, qty := range []int{5, 50, 120} {
		result, err := env.svc.Create(ctx, CreateInput{
			RetailerID: retailer.ID,
			Items:      []CreateItemInput{{ProductID: product.ID, Quantity: qty}},
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if i == 0 {
			confirmed = result.Order.ID
		}
	}
	if _, err := env.svc.Confirm(ctx, confirmed, admin.ID, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	status := enums.OrderStatusPending
	page, err := env.svc.List(ctx, ListFilters{Status: &status}, pagination.Params{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 pending, got %d", page.TotalCount)
	}

	minTotal := decimal.RequireFromString("2000.00")
	page, err = env.svc.List(ctx, ListFilters{MinTotal: &minTotal}, pagination.Params{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by total: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 orders over 2000, got %d", page.TotalCount)
	}

	counts, err := env.svc.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	if counts[enums.OrderStatusPending] != 2 || counts[enums.OrderStatusConfirmed] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
