package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ganeshkulfi/factory-backend/pkg/enums"
)

// User mirrors the identity service's view of an account. This service only
// reads it, to resolve retailer display fields and the pricing tier.
type User struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string             `gorm:"column:email;uniqueIndex;not null"`
	Name      string             `gorm:"column:name;not null"`
	Phone     *string            `gorm:"column:phone"`
	Role      enums.UserRole     `gorm:"column:role;type:text;not null;default:'retailer'"`
	ShopName  *string            `gorm:"column:shop_name"`
	Tier      enums.RetailerTier `gorm:"column:tier;type:text;not null;default:'basic'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralized name.
func (User) TableName() string {
	return "app_user"
}
