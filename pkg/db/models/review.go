package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a buyer's rating of a product, tied to the completed order it
// was purchased on. One review per (user, product, order).
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Comment   *string   `gorm:"column:comment;type:text" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
