package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopd/shopd/internal/domain/cart"
)

const (
	insertCartItemSQL = `INSERT INTO cart_items
		(id, user_id, product_id, quantity, coupon, rate, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getCartItemByIDSQL = `SELECT id, user_id, product_id, quantity, coupon, rate, total, created_at, updated_at
		FROM cart_items WHERE id = $1`

	getCartItemByUserAndProductSQL = `SELECT id, user_id, product_id, quantity, coupon, rate, total, created_at, updated_at
		FROM cart_items WHERE user_id = $1 AND product_id = $2`

	listCartItemsByUserSQL = `SELECT id, user_id, product_id, quantity, coupon, rate, total, created_at, updated_at
		FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	listCartItemsByProductSQL = `SELECT id, user_id, product_id, quantity, coupon, rate, total, created_at, updated_at
		FROM cart_items WHERE product_id = $1 ORDER BY created_at`

	updateCartItemSQL = `UPDATE cart_items
		SET product_id = $2, quantity = $3, coupon = $4, rate = $5, total = $6, updated_at = $7
		WHERE id = $1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1`

	incrementDiscountUsedSQL = `UPDATE discounts SET used = used + 1 WHERE id = $1`

	// No floor check: purchases apply the decrement as-is.
	decrementProductStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1`

	setCartRateForProductAndCouponSQL = `UPDATE cart_items
		SET rate = $3, total = $3 * quantity, updated_at = now()
		WHERE product_id = $1 AND coupon = $2`

	updateCartAmountsSQL = `UPDATE cart_items SET rate = $2, total = $3, updated_at = now() WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The
// composite operations run their writes in a single transaction scoped to the
// touched rows.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByID returns a single cart line by its identifier.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart item %q: %w", id, err)
	}
	return &it, nil
}

// GetByUserAndProduct returns the user's line for the product, or
// cart.ErrNotFound.
func (r *CartRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemByUserAndProductSQL, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item for user %q: %w", userID, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart item for user %q: %w", userID, err)
	}
	return &it, nil
}

// ListByUser returns the user's cart lines ordered by creation time.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// ListByProduct returns every cart line holding the product.
func (r *CartRepository) ListByProduct(ctx context.Context, productID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// CreateRedeeming inserts the line and, when discountID is non-empty,
// increments that discount's usage counter in the same transaction.
func (r *CartRepository) CreateRedeeming(ctx context.Context, item *cart.Item, discountID string) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if discountID != "" {
			if _, err := tx.Exec(ctx, incrementDiscountUsedSQL, discountID); err != nil {
				return fmt.Errorf("incrementing discount %q: %w", discountID, err)
			}
		}
		_, err := tx.Exec(ctx, insertCartItemSQL,
			item.ID, item.UserID, item.ProductID, item.Quantity,
			item.CouponCode, item.Rate, item.Total, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating cart item %q: %w", item.ID, err)
	}
	return nil
}

// Update overwrites a cart line.
func (r *CartRepository) Update(ctx context.Context, item *cart.Item) error {
	tag, err := r.pool.Exec(ctx, updateCartItemSQL,
		item.ID, item.ProductID, item.Quantity, item.CouponCode,
		item.Rate, item.Total, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating cart item %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Delete removes a cart line.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCartItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting cart item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// FinalizePurchase applies a purchase as one transaction: usage counter up,
// stock down, line gone.
func (r *CartRepository) FinalizePurchase(ctx context.Context, itemID, productID, discountID string, qty int) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, incrementDiscountUsedSQL, discountID); err != nil {
			return fmt.Errorf("incrementing discount %q: %w", discountID, err)
		}
		if _, err := tx.Exec(ctx, decrementProductStockSQL, productID, qty); err != nil {
			return fmt.Errorf("decrementing stock for product %q: %w", productID, err)
		}
		tag, err := tx.Exec(ctx, deleteCartItemSQL, itemID)
		if err != nil {
			return fmt.Errorf("deleting cart item %q: %w", itemID, err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return cart.ErrNotFound
		}
		return fmt.Errorf("finalizing purchase of %q: %w", itemID, err)
	}
	return nil
}

// SetRateForProductAndCoupon bulk-updates rate and total on every line
// matching (product, coupon code).
func (r *CartRepository) SetRateForProductAndCoupon(ctx context.Context, productID, couponCode string, rate decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, setCartRateForProductAndCouponSQL, productID, couponCode, rate)
	if err != nil {
		return fmt.Errorf("rescaling cart items for product %q: %w", productID, err)
	}
	return nil
}

// UpdateAmounts overwrites one line's rate and total.
func (r *CartRepository) UpdateAmounts(ctx context.Context, id string, rate, total decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, updateCartAmountsSQL, id, rate, total)
	if err != nil {
		return fmt.Errorf("updating amounts for cart item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(
		&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CouponCode,
		&it.Rate, &it.Total, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}
