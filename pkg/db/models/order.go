package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarly/storefront-backend/pkg/enums"
)

// Order is the committed result of a checkout. Only Status, PaymentStatus,
// TrackingNumber and the payment references mutate after creation; the item
// set is frozen.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	TrackingNumber  *string             `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	GatewayOrderRef *string             `gorm:"column:gateway_order_ref;uniqueIndex" json:"gateway_order_ref,omitempty"`
	PaymentRef      *string             `gorm:"column:payment_ref" json:"payment_ref,omitempty"`
	ShippingAddress *string             `gorm:"column:shipping_address" json:"shipping_address,omitempty"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
