package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/internal/audit"
	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
	"github.com/ganeshkulfi/factory-backend/pkg/types"
)

// OrderSource resolves which orders belong to a retailer. Implemented by the
// orders repository; declared here so this package stays downstream of it.
type OrderSource interface {
	OrderIDsForRetailer(ctx context.Context, retailerID uuid.UUID) ([]uuid.UUID, error)
}

// Update is one notification delivered to a polling retailer.
type Update struct {
	OrderID uuid.UUID               `json:"order_id"`
	Entry   types.TimelineEntryView `json:"entry"`
}

// Service is the notification sink. Delivery is a structured log line today;
// the poll endpoint is how retailers actually observe updates.
type Service interface {
	Notify(ctx context.Context, order *models.Order, event models.OrderStatusEvent)
	Poll(ctx context.Context, retailerID uuid.UUID) ([]Update, error)
}

type service struct {
	audit  audit.Service
	orders OrderSource
	logg   *logger.Logger
}

// NewService wires the notification sink.
func NewService(auditSvc audit.Service, orders OrderSource, logg *logger.Logger) (Service, error) {
	if auditSvc == nil || orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications dependencies required")
	}
	return &service{audit: auditSvc, orders: orders, logg: logg}, nil
}

// Notify is fire-and-forget: failures are logged, never surfaced to the
// transition that triggered them.
func (s *service) Notify(ctx context.Context, order *models.Order, event models.OrderStatusEvent) {
	if s.logg == nil || order == nil {
		return
	}

	entry, ok := audit.CurateEvent(event)
	if !ok {
		return
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"recipient":    order.RetailerEmail,
		"title":        entry.Label,
		"body":         entry.Message,
		"status":       event.NewStatus.String(),
	})
	s.logg.Info(ctx, "notification.dispatched")
}

// Poll returns the retailer's unseen curated updates and marks them as
// delivered.
func (s *service) Poll(ctx context.Context, retailerID uuid.UUID) ([]Update, error) {
	orderIDs, err := s.orders.OrderIDsForRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []Update{}, nil
	}

	events, err := s.audit.UnnotifiedTimeline(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	updates := make([]Update, 0, len(events))
	seen := make([]int64, 0, len(events))
	for _, event := range events {
		seen = append(seen, event.ID)
		entry, ok := audit.CurateEvent(event)
		if !ok {
			continue
		}
		updates = append(updates, Update{OrderID: event.OrderID, Entry: entry})
	}

	// Non-curated events are also marked so they are not re-scanned forever.
	if err := s.audit.MarkNotified(ctx, seen); err != nil {
		return nil, err
	}
	return updates, nil
}
