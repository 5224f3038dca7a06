package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartRescaler recomputes stored cart-line amounts after a product's price
// changes. Implemented by the cart service, which owns all cart mutation.
type CartRescaler interface {
	RescaleProductLines(ctx context.Context, p *Product) error
}

// CreateProductRequest holds the input for creating a product.
type CreateProductRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// UpdateProductRequest holds the new field values for a product update.
type UpdateProductRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// Service implements admin catalog management. Price edits cascade into the
// cart lines of the edited product via the CartRescaler.
type Service struct {
	products Repository
	carts    CartRescaler
	now      func() time.Time
}

// NewService creates a catalog Service.
func NewService(products Repository, carts CartRescaler) *Service {
	return &Service{
		products: products,
		carts:    carts,
		now:      time.Now,
	}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if req.Price.IsNegative() {
		return nil, ErrBadPrice
	}
	if req.Stock < 0 {
		return nil, ErrBadStock
	}

	p := &Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CreatedAt:   s.now(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// List returns all catalog products.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.products.List(ctx)
}

// Update overwrites product fields. When the price changes, every cart line
// holding this product is rescaled against the new price; lines for other
// products are untouched.
func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Price.IsNegative() {
		return nil, ErrBadPrice
	}
	if req.Stock < 0 {
		return nil, ErrBadStock
	}

	priceChanged := !p.Price.Equal(req.Price)

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	now := s.now()
	p.UpdatedAt = &now

	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}

	if priceChanged {
		if err := s.carts.RescaleProductLines(ctx, p); err != nil {
			return nil, errors.Wrap(err, "rescale cart lines")
		}
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
