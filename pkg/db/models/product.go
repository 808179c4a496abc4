package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Stock is the single source of truth
// for availability; every decrement pairs with a guard in the same
// transaction.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string           `gorm:"column:name;not null" json:"name"`
	Description *string          `gorm:"column:description" json:"description,omitempty"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SalePrice   *decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2)" json:"sale_price,omitempty"`
	ImageURL    *string          `gorm:"column:image_url" json:"image_url,omitempty"`
	Gallery     pq.StringArray   `gorm:"column:gallery;type:text[]" json:"gallery,omitempty"`
	Quality     *string          `gorm:"column:quality" json:"quality,omitempty"`
	Size        *string          `gorm:"column:size" json:"size,omitempty"`
	Stock       int              `gorm:"column:stock;not null;default:0" json:"stock"`
	IsFeatured  bool             `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	Rating      float64          `gorm:"column:rating;not null;default:0" json:"rating"`
	Reviews     int              `gorm:"column:reviews;not null;default:0" json:"reviews"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
