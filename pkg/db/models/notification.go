package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores a user-visible status message. It is advisory only:
// nothing reads it back into order state.
type Notification struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	Read      bool      `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
