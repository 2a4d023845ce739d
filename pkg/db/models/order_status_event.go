package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// OrderStatusEvent is one row of the order audit trail. Status transitions
// and fulfillment milestones share the table; the admin history and the
// retailer timeline are read-side projections of it. Rows are append-only
// except for the notification flag.
type OrderStatusEvent struct {
	ID               int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID          uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	OldStatus        *enums.OrderStatus      `gorm:"column:old_status;type:text"`
	NewStatus        enums.OrderStatus       `gorm:"column:new_status;type:text;not null"`
	Milestone        *enums.FulfillmentEvent `gorm:"column:milestone;type:text"`
	ActorID          *uuid.UUID              `gorm:"column:actor_id;type:uuid"`
	ActorRole        enums.UserRole          `gorm:"column:actor_role;type:text;not null"`
	Reason           *string                 `gorm:"column:reason"`
	Message          *string                 `gorm:"column:message"`
	NotificationSent bool                    `gorm:"column:notification_sent;not null;default:false"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
}
