package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds the in-progress selection for a user. One active cart per user.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
