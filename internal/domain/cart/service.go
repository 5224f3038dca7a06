package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shopd/shopd/internal/domain/catalog"
	"github.com/shopd/shopd/internal/domain/coupon"
	"github.com/shopd/shopd/internal/domain/pricing"
)

// AddItemRequest holds the input for adding a product to a user's cart.
type AddItemRequest struct {
	ProductID  string
	Quantity   int
	CouponCode string
}

// UpdateItemRequest holds the new field values for an existing cart line.
type UpdateItemRequest struct {
	ProductID  string
	Quantity   int
	CouponCode string
}

// Service is the cart ledger. It owns all cart-line mutation and orchestrates
// coupon validation, rate computation, and usage-counter bookkeeping.
type Service struct {
	items     Repository
	products  catalog.Repository
	discounts coupon.Repository
	now       func() time.Time
}

// Compile-time checks: the cart service is the rescaler both the catalog and
// coupon services cascade through.
var (
	_ catalog.CartRescaler = (*Service)(nil)
	_ coupon.CartRescaler  = (*Service)(nil)
)

// NewService creates a cart Service.
func NewService(items Repository, products catalog.Repository, discounts coupon.Repository) *Service {
	return &Service{
		items:     items,
		products:  products,
		discounts: discounts,
		now:       time.Now,
	}
}

// AddItem validates and creates a cart line for the user.
//
// Validation order: quantity, product existence, duplicate line, stock, then
// coupon eligibility. When the product has no discounts at all, any supplied
// code (including a non-empty one) is accepted with zero discount; when it
// has discounts, the code must match one of them and the match must be
// unexpired and under its usage cap. A successful match redeems the coupon:
// its usage counter is incremented together with the line insert.
func (s *Service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Item, error) {
	if req.Quantity <= 0 {
		return nil, ErrBadQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if _, err := s.items.GetByUserAndProduct(ctx, userID, req.ProductID); err == nil {
		return nil, ErrDuplicateItem
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check existing cart item")
	}

	if req.Quantity > p.Stock {
		return nil, &InsufficientStockError{Remaining: p.Stock}
	}

	matched, err := s.matchDiscount(ctx, p.ID, req.CouponCode)
	if err != nil {
		return nil, err
	}

	percent, discountID := 0, ""
	if matched != nil {
		percent = matched.Percent
		discountID = matched.ID
	}

	rate := pricing.Rate(p.Price, percent)
	item := &Item{
		ID:         uuid.New().String(),
		UserID:     userID,
		ProductID:  p.ID,
		Quantity:   req.Quantity,
		CouponCode: req.CouponCode,
		Rate:       rate,
		Total:      pricing.Total(rate, req.Quantity),
		CreatedAt:  s.now(),
	}
	if err := s.items.CreateRedeeming(ctx, item, discountID); err != nil {
		return nil, errors.Wrap(err, "create cart item")
	}
	return item, nil
}

// matchDiscount resolves the coupon code against the discounts scoped to the
// product. A product without discounts accepts any code with no discount
// applied.
func (s *Service) matchDiscount(ctx context.Context, productID, code string) (*coupon.Discount, error) {
	discounts, err := s.discounts.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list discounts")
	}
	if len(discounts) == 0 {
		return nil, nil
	}

	for i := range discounts {
		if discounts[i].Code != code {
			continue
		}
		if !discounts[i].Redeemable(s.now()) {
			return nil, coupon.ErrExhausted
		}
		return &discounts[i], nil
	}
	return nil, coupon.ErrInvalidCoupon
}

// UpdateItem overwrites an existing line and recomputes rate and total from
// the product's current price.
//
// Unlike AddItem it requires a discount matching (product, coupon code) and
// fails with the discount's not-found error when there is none; it also skips
// stock and expiry/usage re-validation. The asymmetry is part of the public
// contract.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, req UpdateItemRequest) (*Item, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	d, err := s.discounts.FindByProductAndCode(ctx, p.ID, req.CouponCode)
	if err != nil {
		return nil, err
	}

	item.ProductID = p.ID
	item.Quantity = req.Quantity
	item.CouponCode = req.CouponCode
	item.Rate = pricing.Rate(p.Price, d.Percent)
	item.Total = pricing.Total(item.Rate, req.Quantity)
	now := s.now()
	item.UpdatedAt = &now

	if err := s.items.Update(ctx, item); err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	return item, nil
}

// ListForUser returns the user's cart lines.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Item, error) {
	return s.items.ListByUser(ctx, userID)
}

// GetItem returns one of the user's cart lines.
func (s *Service) GetItem(ctx context.Context, userID, itemID string) (*Item, error) {
	return s.ownedItem(ctx, userID, itemID)
}

// DeleteItem removes a line from the user's cart. The coupon usage counter is
// not decremented: redemptions are monotonic.
func (s *Service) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.items.Delete(ctx, item.ID)
}

// Buy finalizes a cart line into a completed purchase: the matching
// discount's usage counter is incremented, the product's stock is decremented
// by the line quantity, and the line is removed, as one atomic unit. The
// line, its product, and a discount matching (product, coupon code) must all
// exist.
func (s *Service) Buy(ctx context.Context, userID, itemID string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}

	d, err := s.discounts.FindByProductAndCode(ctx, p.ID, item.CouponCode)
	if err != nil {
		return err
	}

	if err := s.items.FinalizePurchase(ctx, item.ID, p.ID, d.ID, item.Quantity); err != nil {
		return errors.Wrap(err, "finalize purchase")
	}
	return nil
}

// RescaleLines implements coupon.CartRescaler: after a discount's percentage
// changes, every line holding (product, coupon code) is repriced against the
// product's current price and the new percentage.
func (s *Service) RescaleLines(ctx context.Context, productID, couponCode string, percent int) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	rate := pricing.Rate(p.Price, percent)
	return s.items.SetRateForProductAndCoupon(ctx, productID, couponCode, rate)
}

// RescaleProductLines implements catalog.CartRescaler: after a product's
// price changes, each of that product's lines is repriced using its own
// stored coupon code. Lines whose code no longer matches a discount reprice
// at zero discount.
func (s *Service) RescaleProductLines(ctx context.Context, p *catalog.Product) error {
	items, err := s.items.ListByProduct(ctx, p.ID)
	if err != nil {
		return errors.Wrap(err, "list cart items")
	}

	for i := range items {
		percent := 0
		d, err := s.discounts.FindByProductAndCode(ctx, p.ID, items[i].CouponCode)
		switch {
		case err == nil:
			percent = d.Percent
		case errors.Is(err, coupon.ErrNotFound):
			// no matching discount, reprice at base
		default:
			return errors.Wrap(err, "find discount")
		}

		rate := pricing.Rate(p.Price, percent)
		total := pricing.Total(rate, items[i].Quantity)
		if err := s.items.UpdateAmounts(ctx, items[i].ID, rate, total); err != nil {
			return errors.Wrap(err, "update cart item amounts")
		}
	}
	return nil
}

// ownedItem loads a line and hides its existence from other users.
func (s *Service) ownedItem(ctx context.Context, userID, itemID string) (*Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrNotFound
	}
	return item, nil
}
