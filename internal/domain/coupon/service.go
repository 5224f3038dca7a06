package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shopd/shopd/internal/domain/catalog"
)

// CartRescaler recomputes stored cart-line amounts for every line that holds
// the given product and coupon code. Implemented by the cart service.
type CartRescaler interface {
	RescaleLines(ctx context.Context, productID, couponCode string, percent int) error
}

// CreateDiscountRequest holds the input for creating a discount.
type CreateDiscountRequest struct {
	ProductID    string
	Percent      int
	Provider     string
	Code         string
	AllowedUsers int
	// Expiry is optional; the zero value means now + DefaultValidity.
	Expiry time.Time
}

// UpdateDiscountRequest holds the new field values for a discount update.
type UpdateDiscountRequest struct {
	ProductID    string
	Percent      int
	Provider     string
	Code         string
	AllowedUsers int
	Expiry       time.Time
}

// Service implements admin discount management. Percentage edits cascade into
// the cart lines that already redeemed the coupon.
type Service struct {
	discounts Repository
	products  catalog.Repository
	carts     CartRescaler
	now       func() time.Time
}

// NewService creates a coupon Service.
func NewService(discounts Repository, products catalog.Repository, carts CartRescaler) *Service {
	return &Service{
		discounts: discounts,
		products:  products,
		carts:     carts,
		now:       time.Now,
	}
}

// Create validates and persists a new discount with a zeroed usage counter.
func (s *Service) Create(ctx context.Context, req CreateDiscountRequest) (*Discount, error) {
	if req.Percent < 0 || req.Percent > 100 {
		return nil, ErrBadPercent
	}
	if req.AllowedUsers < 0 {
		return nil, ErrBadAllowedUsers
	}
	if _, err := s.products.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	now := s.now()
	expiry := req.Expiry
	if expiry.IsZero() {
		expiry = now.Add(DefaultValidity)
	}

	d := &Discount{
		ID:           uuid.New().String(),
		ProductID:    req.ProductID,
		Percent:      req.Percent,
		Provider:     req.Provider,
		Code:         req.Code,
		AllowedUsers: req.AllowedUsers,
		Used:         0,
		Expiry:       expiry,
		CreatedAt:    now,
	}
	if err := s.discounts.Create(ctx, d); err != nil {
		return nil, errors.Wrap(err, "create discount")
	}
	return d, nil
}

// Get returns a single discount.
func (s *Service) Get(ctx context.Context, id string) (*Discount, error) {
	return s.discounts.GetByID(ctx, id)
}

// List returns all discounts.
func (s *Service) List(ctx context.Context) ([]Discount, error) {
	return s.discounts.List(ctx)
}

// ListForProduct returns the discounts scoped to one product. An empty slice
// is not an error.
func (s *Service) ListForProduct(ctx context.Context, productID string) ([]Discount, error) {
	return s.discounts.ListByProduct(ctx, productID)
}

// Update overwrites discount fields. When the percentage changes, every cart
// line holding the same product and coupon code is rescaled to the new
// percentage; lines redeemed under a different code are untouched. Other field
// edits are plain overwrites with no cascade.
func (s *Service) Update(ctx context.Context, id string, req UpdateDiscountRequest) (*Discount, error) {
	d, err := s.discounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Percent < 0 || req.Percent > 100 {
		return nil, ErrBadPercent
	}
	if req.AllowedUsers < 0 {
		return nil, ErrBadAllowedUsers
	}

	percentChanged := d.Percent != req.Percent

	d.ProductID = req.ProductID
	d.Percent = req.Percent
	d.Provider = req.Provider
	d.Code = req.Code
	d.AllowedUsers = req.AllowedUsers
	if !req.Expiry.IsZero() {
		d.Expiry = req.Expiry
	}
	now := s.now()
	d.UpdatedAt = &now

	if err := s.discounts.Update(ctx, d); err != nil {
		return nil, errors.Wrap(err, "update discount")
	}

	if percentChanged {
		if err := s.carts.RescaleLines(ctx, d.ProductID, d.Code, d.Percent); err != nil {
			return nil, errors.Wrap(err, "rescale cart lines")
		}
	}
	return d, nil
}

// Delete removes a discount.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.discounts.Delete(ctx, id)
}
