// Package cart implements the cart ledger: one line per (user, product) pair
// holding a locked-in discounted rate, plus the checkout path that turns a
// line into a completed purchase.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested cart line does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("cart item not found")
	// ErrBadQuantity is returned when a quantity is not positive.
	ErrBadQuantity = errors.New("quantity must be greater than 0")
	// ErrDuplicateItem is returned when the user already has a cart line for
	// the product. Duplicates are rejected, not merged.
	ErrDuplicateItem = errors.New("item already exists in the cart")
)

// InsufficientStockError indicates the requested quantity exceeds the
// product's current stock. Remaining carries the stock at validation time.
type InsufficientStockError struct {
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("currently there's only %d remaining in the stock", e.Remaining)
}

// Item is one user's pending purchase intent for one product.
//
// Rate is the per-unit price after the coupon discount was applied at add
// time; Total is rate * quantity. Both are stored so later catalog or
// discount edits can rescale saved lines explicitly rather than implicitly.
type Item struct {
	ID         string
	UserID     string
	ProductID  string
	Quantity   int
	CouponCode string
	Rate       decimal.Decimal
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Repository defines storage operations for cart lines.
//
// CreateRedeeming and FinalizePurchase are composite operations: each runs
// its writes in a single transaction scoped to the touched rows, so a coupon
// redemption is never persisted without its cart line and a purchase never
// half-applies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Item, error)
	// GetByUserAndProduct returns ErrNotFound when the user has no line for
	// the product.
	GetByUserAndProduct(ctx context.Context, userID, productID string) (*Item, error)
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	ListByProduct(ctx context.Context, productID string) ([]Item, error)

	// CreateRedeeming inserts the line and, when discountID is non-empty,
	// increments that discount's usage counter in the same transaction.
	CreateRedeeming(ctx context.Context, item *Item, discountID string) error

	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error

	// FinalizePurchase increments the discount's usage counter, decrements the
	// product's stock by qty, and deletes the line, all in one transaction.
	// There is deliberately no floor check on stock at purchase time.
	FinalizePurchase(ctx context.Context, itemID, productID, discountID string, qty int) error

	// SetRateForProductAndCoupon overwrites rate (and total = rate * quantity)
	// on every line matching the product and coupon code.
	SetRateForProductAndCoupon(ctx context.Context, productID, couponCode string, rate decimal.Decimal) error

	// UpdateAmounts overwrites a single line's rate and total.
	UpdateAmounts(ctx context.Context, id string, rate, total decimal.Decimal) error
}
