package cart

import (
	"context"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence operations for carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart with items and product snapshots.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByUser returns the user's cart, creating an empty one if needed.
func (r *Repository) FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh := models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return nil, err
	}
	fresh.Items = []models.CartItem{}
	return &fresh, nil
}

// UpsertItem adds the quantity to an existing line or inserts a new one.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("quantity + ?", item.Quantity)}),
		}).
		Create(item).Error
}

// SetItemQuantity overwrites a line's quantity.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		UpdateColumn("quantity", quantity)
	return result.RowsAffected, result.Error
}

// RemoveItem deletes one line from the cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearForUser deletes every item in the user's cart inside the caller's
// transaction. The cart row itself survives.
func (r *Repository) ClearForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Where("cart_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
}
