package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:audit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.OrderStatusEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func statusPtr(s enums.OrderStatus) *enums.OrderStatus {
	return &s
}

func milestonePtr(m enums.FulfillmentEvent) *enums.FulfillmentEvent {
	return &m
}

func strPtr(s string) *string {
	return &s
}

func TestRecordAndHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()
	orderID := uuid.New()
	admin := uuid.New()

	if _, err := svc.Record(ctx, nil, RecordInput{
		OrderID:   orderID,
		NewStatus: enums.OrderStatusPending,
		ActorRole: enums.UserRoleRetailer,
	}); err != nil {
		t.Fatalf("record pending: %v", err)
	}
	if _, err := svc.Record(ctx, nil, RecordInput{
		OrderID:   orderID,
		OldStatus: statusPtr(enums.OrderStatusPending),
		NewStatus: enums.OrderStatusConfirmed,
		ActorID:   &admin,
		ActorRole: enums.UserRoleAdmin,
		Reason:    strPtr("stock verified"),
	}); err != nil {
		t.Fatalf("record confirmed: %v", err)
	}

	history, err := svc.History(ctx, orderID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if history[0].NewStatus != enums.OrderStatusPending {
		t.Fatalf("expected oldest-first, got %s", history[0].NewStatus)
	}
	if history[1].Reason == nil || *history[1].Reason != "stock verified" {
		t.Fatalf("expected admin reason preserved")
	}

	latest, err := svc.Latest(ctx, orderID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.NewStatus != enums.OrderStatusConfirmed {
		t.Fatalf("latest = %s, want confirmed", latest.NewStatus)
	}
}

func TestRecordRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db))

	if _, err := svc.Record(context.Background(), nil, RecordInput{
		OrderID:   uuid.New(),
		NewStatus: enums.OrderStatus("shipped"),
		ActorRole: enums.UserRoleAdmin,
	}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestTimelineCuration(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()
	orderID := uuid.New()
	admin := uuid.New()

	inputs := []RecordInput{
		{OrderID: orderID, NewStatus: enums.OrderStatusPending, ActorRole: enums.UserRoleRetailer},
		{
			OrderID:   orderID,
			OldStatus: statusPtr(enums.OrderStatusPending),
			NewStatus: enums.OrderStatusConfirmed,
			ActorID:   &admin,
			ActorRole: enums.UserRoleAdmin,
			Reason:    strPtr("internal: checked with floor manager"),
			Message:   strPtr("Confirmed, dispatching tomorrow."),
		},
		// Payment update: same status on both sides, retailer never sees it.
		{
			OrderID:   orderID,
			OldStatus: statusPtr(enums.OrderStatusConfirmed),
			NewStatus: enums.OrderStatusConfirmed,
			ActorID:   &admin,
			ActorRole: enums.UserRoleAdmin,
			Reason:    strPtr("payment partial"),
		},
		{
			OrderID:   orderID,
			OldStatus: statusPtr(enums.OrderStatusConfirmed),
			NewStatus: enums.OrderStatusConfirmed,
			Milestone: milestonePtr(enums.FulfillmentEventPacked),
			ActorID:   &admin,
			ActorRole: enums.UserRoleAdmin,
		},
	}
	for i, input := range inputs {
		if _, err := svc.Record(ctx, nil, input); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	timeline, err := svc.Timeline(ctx, orderID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(timeline) != 3 {
		t.Fatalf("expected 3 curated entries, got %d: %+v", len(timeline), timeline)
	}
	if timeline[0].Label != "Order placed" {
		t.Fatalf("unexpected first label %q", timeline[0].Label)
	}
	if timeline[1].Message != "Confirmed, dispatching tomorrow." {
		t.Fatalf("curated message not preferred: %q", timeline[1].Message)
	}
	if timeline[2].Label != "Order packed" {
		t.Fatalf("unexpected milestone label %q", timeline[2].Label)
	}
	for _, entry := range timeline {
		if entry.Message == "internal: checked with floor manager" || entry.Message == "payment partial" {
			t.Fatalf("internal reason leaked into timeline: %+v", entry)
		}
	}
}

func TestMarkNotified(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()
	orderID := uuid.New()

	first, err := svc.Record(ctx, nil, RecordInput{
		OrderID:   orderID,
		NewStatus: enums.OrderStatusPending,
		ActorRole: enums.UserRoleRetailer,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := svc.Record(ctx, nil, RecordInput{
		OrderID:   orderID,
		OldStatus: statusPtr(enums.OrderStatusPending),
		NewStatus: enums.OrderStatusConfirmed,
		ActorRole: enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	pending, err := svc.UnnotifiedTimeline(ctx, []uuid.UUID{orderID})
	if err != nil {
		t.Fatalf("unnotified: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 unnotified, got %d", len(pending))
	}

	if err := svc.MarkNotified(ctx, []int64{first.ID}); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	pending, err = svc.UnnotifiedTimeline(ctx, []uuid.UUID{orderID})
	if err != nil {
		t.Fatalf("unnotified: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only second event pending, got %+v", pending)
	}
}

func TestHistoryForOrdersBatches(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	orderA := uuid.New()
	orderB := uuid.New()
	for _, id := range []uuid.UUID{orderA, orderB} {
		if _, err := svc.Record(ctx, nil, RecordInput{
			OrderID:   id,
			NewStatus: enums.OrderStatusPending,
			ActorRole: enums.UserRoleRetailer,
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	batched, err := svc.HistoryForOrders(ctx, []uuid.UUID{orderA, orderB, uuid.New()})
	if err != nil {
		t.Fatalf("batched history: %v", err)
	}
	if len(batched) != 2 {
		t.Fatalf("expected 2 orders with events, got %d", len(batched))
	}
	if len(batched[orderA]) != 1 || len(batched[orderB]) != 1 {
		t.Fatalf("unexpected batch contents: %+v", batched)
	}
}
