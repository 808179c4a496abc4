package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaarly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Line is one product/quantity pair to reserve or release.
type Line struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements stock for every line, all or nothing. Each decrement is
// guarded so stock never drops below zero even under concurrent checkouts.
// The caller's transaction rolls back on any failed line, so partial
// reservations never persist.
func Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no items to reserve")
	}

	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity %d for product %s", line.Qty, line.ProductID)).
				WithDetails(map[string]any{"product_id": line.ProductID})
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", line.ProductID, line.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserving stock")
		}
		if res.RowsAffected == 0 {
			return classifyFailedLine(ctx, tx, line)
		}
	}
	return nil
}

// Release returns previously reserved quantities to stock. Used when an
// order is rejected before fulfillment.
func Release(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid release line")
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", line.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "releasing stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
	}
	return nil
}

// Deduct decrements stock without an availability guard. The payment
// verification path trusts the gateway order created earlier and does not
// re-check stock; the schema-level non-negative check is the only backstop.
func Deduct(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid deduct line")
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "deducting stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
	}
	return nil
}

// A guarded update affecting zero rows means either the product is gone or
// there was not enough stock. Distinguish the two for the caller.
func classifyFailedLine(ctx context.Context, tx *gorm.DB, line Line) error {
	var product models.Product
	err := tx.WithContext(ctx).
		Select("id", "stock").
		Where("id = ?", line.ProductID).
		Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product after failed reserve")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for product %s", line.ProductID)).
		WithDetails(map[string]any{
			"product_id": line.ProductID,
			"requested":  line.Qty,
			"available":  product.Stock,
		})
}
