// Package catalog holds the product catalog: entities, the storage contract,
// and the admin-facing service that mutates products.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrBadStock is returned when a product is created or updated with
	// negative stock.
	ErrBadStock = errors.New("stock cannot be negative")
	// ErrBadPrice is returned when a product price is negative.
	ErrBadPrice = errors.New("price cannot be negative")
	// ErrNameRequired is returned when a product is created without a name.
	ErrNameRequired = errors.New("product name is required")
)

// Product represents a catalog item available for purchase.
//
// LegacyDiscount mirrors the historical per-product discount column. Pricing
// never reads it; the discounts table is authoritative. It is carried only so
// existing rows and API payloads keep their shape.
type Product struct {
	ID             string
	Name           string
	Description    string
	Price          decimal.Decimal
	Stock          int
	LegacyDiscount int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Repository defines storage operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
