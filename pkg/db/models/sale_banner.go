package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleBanner is a promotional banner managed by admins.
type SaleBanner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	ImageURL  string    `gorm:"column:image_url;not null" json:"image_url"`
	Link      *string   `gorm:"column:link" json:"link,omitempty"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
