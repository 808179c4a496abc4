package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one line of an order. PriceAtPurchase is frozen at
// order time and never recomputed from the current product price.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(12,2);not null" json:"price_at_purchase"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
