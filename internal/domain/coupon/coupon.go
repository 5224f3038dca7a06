// Package coupon holds discount records, their eligibility rules, and the
// admin-facing service that manages them. A discount is a percentage-off rule
// scoped to a single product, with a usage cap and an expiry.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// DefaultValidity is the lifetime granted to a discount created without an
// explicit expiry.
const DefaultValidity = 10 * 24 * time.Hour

var (
	// ErrNotFound is returned when a requested discount does not exist.
	ErrNotFound = errors.New("discount not found")
	// ErrInvalidCoupon is returned when a supplied coupon code matches none of
	// the discounts scoped to the product.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrExhausted is returned when a matched discount is past its expiry or
	// has reached its usage cap.
	ErrExhausted = errors.New("coupon code expired or reached its limit")
	// ErrBadPercent is returned when a discount percentage is outside [0, 100].
	ErrBadPercent = errors.New("discount percent must be between 0 and 100")
	// ErrBadAllowedUsers is returned when a usage cap is negative.
	ErrBadAllowedUsers = errors.New("allowed users cannot be negative")
)

// Discount is a coupon rule scoped to one product.
//
// Used counts successful redemptions. It is monotonic: cart-line deletion does
// not return a redemption, matching the long-standing behaviour callers depend
// on. The used <= allowed_users rule is checked at redemption time only, not
// enforced by storage.
type Discount struct {
	ID           string
	ProductID    string
	Percent      int
	Provider     string
	Code         string
	AllowedUsers int
	Used         int
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Redeemable reports whether the discount can still be applied at the given
// instant: not expired and under its usage cap.
func (d *Discount) Redeemable(now time.Time) bool {
	return d.Expiry.After(now) && d.Used < d.AllowedUsers
}

// Repository defines storage operations for discounts.
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	GetByID(ctx context.Context, id string) (*Discount, error)
	List(ctx context.Context) ([]Discount, error)
	// ListByProduct returns every discount scoped to the product, or an empty
	// slice when none exist.
	ListByProduct(ctx context.Context, productID string) ([]Discount, error)
	// FindByProductAndCode returns ErrNotFound when no discount with the given
	// code is scoped to the product.
	FindByProductAndCode(ctx context.Context, productID, code string) (*Discount, error)
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, id string) error
}
