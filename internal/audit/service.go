package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ganeshkulfi/factory-backend/pkg/db/models"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	pkgerrors "github.com/ganeshkulfi/factory-backend/pkg/errors"
	"github.com/ganeshkulfi/factory-backend/pkg/types"
)

// RecordInput captures one audit row to append.
type RecordInput struct {
	OrderID   uuid.UUID
	OldStatus *enums.OrderStatus
	NewStatus enums.OrderStatus
	Milestone *enums.FulfillmentEvent
	ActorID   *uuid.UUID
	ActorRole enums.UserRole
	Reason    *string
	Message   *string
}

// Service writes and projects the order audit trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.OrderStatusEvent, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
	HistoryForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderStatusEvent, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusEvent, error)
	Timeline(ctx context.Context, orderID uuid.UUID) ([]types.TimelineEntryView, error)
	UnnotifiedTimeline(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderStatusEvent, error)
	MarkNotified(ctx context.Context, eventIDs []int64) error
}

type service struct {
	repo Repository
}

// NewService builds the audit service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.OrderStatusEvent, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	event := &models.OrderStatusEvent{
		OrderID:   input.OrderID,
		OldStatus: input.OldStatus,
		NewStatus: input.NewStatus,
		Milestone: input.Milestone,
		ActorID:   input.ActorID,
		ActorRole: input.ActorRole,
		Reason:    input.Reason,
		Message:   input.Message,
	}
	if err := s.repo.WithTx(tx).Append(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *service) HistoryForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderStatusEvent, error) {
	return s.repo.ListByOrders(ctx, orderIDs)
}

func (s *service) Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusEvent, error) {
	event, err := s.repo.Latest(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no status events for order")
		}
		return nil, err
	}
	return event, nil
}

// Timeline projects the audit trail into the retailer-curated view. Events
// without a curated label (operator holds, payment notes) are dropped;
// internal reasons and factory notes never appear.
func (s *service) Timeline(ctx context.Context, orderID uuid.UUID) ([]types.TimelineEntryView, error) {
	events, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	entries := make([]types.TimelineEntryView, 0, len(events))
	for _, event := range events {
		entry, ok := CurateEvent(event)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *service) UnnotifiedTimeline(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderStatusEvent, error) {
	return s.repo.ListUnnotified(ctx, orderIDs)
}

func (s *service) MarkNotified(ctx context.Context, eventIDs []int64) error {
	return s.repo.MarkNotified(ctx, eventIDs)
}

type curatedText struct {
	label   string
	message string
}

var statusCuration = map[enums.OrderStatus]curatedText{
	enums.OrderStatusPending:        {"Order placed", "Your order has been received and is awaiting confirmation."},
	enums.OrderStatusConfirmed:      {"Order confirmed", "The factory has confirmed your order."},
	enums.OrderStatusRejected:       {"Order rejected", "The factory could not fulfil your order."},
	enums.OrderStatusCancelled:      {"Order cancelled", "Your order has been cancelled."},
	enums.OrderStatusCancelledAdmin: {"Order cancelled", "Your order was cancelled by the factory."},
}

var milestoneCuration = map[enums.FulfillmentEvent]curatedText{
	enums.FulfillmentEventPacked:         {"Order packed", "Your order has been packed and is ready for dispatch."},
	enums.FulfillmentEventOutForDelivery: {"Out for delivery", "Your order is on its way."},
	enums.FulfillmentEventDelivered:      {"Delivered", "Your order has been delivered."},
}

// CurateEvent maps an audit row to its retailer-facing wording. The second
// return is false for events the retailer should not see.
func CurateEvent(event models.OrderStatusEvent) (types.TimelineEntryView, bool) {
	var text curatedText
	if event.Milestone != nil {
		curated, ok := milestoneCuration[*event.Milestone]
		if !ok {
			return types.TimelineEntryView{}, false
		}
		text = curated
	} else {
		curated, ok := statusCuration[event.NewStatus]
		if !ok {
			return types.TimelineEntryView{}, false
		}
		// Plain status repeats (payment updates, holds) carry no transition.
		if event.OldStatus != nil && *event.OldStatus == event.NewStatus {
			return types.TimelineEntryView{}, false
		}
		text = curated
	}

	message := text.message
	if event.Message != nil && *event.Message != "" {
		message = *event.Message
	}
	return types.TimelineEntryView{
		Status:    event.NewStatus,
		Label:     text.label,
		Message:   message,
		CreatedAt: event.CreatedAt,
	}, true
}
