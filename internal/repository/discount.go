package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopd/shopd/internal/domain/coupon"
)

const (
	insertDiscountSQL = `INSERT INTO discounts
		(id, product_id, percent, provider, coupon_code, allowed_users, used, expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getDiscountByIDSQL = `SELECT id, product_id, percent, provider, coupon_code, allowed_users, used, expiry, created_at, updated_at
		FROM discounts WHERE id = $1`

	listDiscountsSQL = `SELECT id, product_id, percent, provider, coupon_code, allowed_users, used, expiry, created_at, updated_at
		FROM discounts ORDER BY created_at`

	listDiscountsByProductSQL = `SELECT id, product_id, percent, provider, coupon_code, allowed_users, used, expiry, created_at, updated_at
		FROM discounts WHERE product_id = $1 ORDER BY created_at`

	findDiscountByProductAndCodeSQL = `SELECT id, product_id, percent, provider, coupon_code, allowed_users, used, expiry, created_at, updated_at
		FROM discounts WHERE product_id = $1 AND coupon_code = $2`

	updateDiscountSQL = `UPDATE discounts
		SET product_id = $2, percent = $3, provider = $4, coupon_code = $5,
		    allowed_users = $6, expiry = $7, updated_at = $8
		WHERE id = $1`

	deleteDiscountSQL = `DELETE FROM discounts WHERE id = $1`
)

var _ coupon.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements coupon.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Create persists a new discount.
func (r *DiscountRepository) Create(ctx context.Context, d *coupon.Discount) error {
	_, err := r.pool.Exec(ctx, insertDiscountSQL,
		d.ID, d.ProductID, d.Percent, d.Provider, d.Code, d.AllowedUsers, d.Used, d.Expiry, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating discount %q: %w", d.Code, err)
	}
	return nil
}

// GetByID returns a single discount by its identifier.
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*coupon.Discount, error) {
	rows, err := r.pool.Query(ctx, getDiscountByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	return &d, nil
}

// List returns all discounts ordered by creation time.
func (r *DiscountRepository) List(ctx context.Context) ([]coupon.Discount, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// ListByProduct returns the discounts scoped to one product.
func (r *DiscountRepository) ListByProduct(ctx context.Context, productID string) ([]coupon.Discount, error) {
	rows, err := r.pool.Query(ctx, listDiscountsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing discounts for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// FindByProductAndCode returns the discount with the given code scoped to the
// product, or coupon.ErrNotFound.
func (r *DiscountRepository) FindByProductAndCode(ctx context.Context, productID, code string) (*coupon.Discount, error) {
	rows, err := r.pool.Query(ctx, findDiscountByProductAndCodeSQL, productID, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}
	return &d, nil
}

// Update overwrites a discount's mutable fields. The usage counter is managed
// by the cart repository's composite operations, not here.
func (r *DiscountRepository) Update(ctx context.Context, d *coupon.Discount) error {
	tag, err := r.pool.Exec(ctx, updateDiscountSQL,
		d.ID, d.ProductID, d.Percent, d.Provider, d.Code, d.AllowedUsers, d.Expiry, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating discount %q: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a discount.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (coupon.Discount, error) {
	var d coupon.Discount
	err := row.Scan(
		&d.ID, &d.ProductID, &d.Percent, &d.Provider, &d.Code,
		&d.AllowedUsers, &d.Used, &d.Expiry, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}
