package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopd/shopd/internal/domain/auth"
)

const (
	insertUserSQL = `INSERT INTO users (id, email, username, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getUserByEmailSQL = `SELECT id, email, username, password_hash, is_admin, created_at
		FROM users WHERE email = $1`

	getUserByIDSQL = `SELECT id, email, username, password_hash, is_admin, created_at
		FROM users WHERE id = $1`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository implements auth.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user account.
func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Email, u.Username, u.PasswordHash, u.Admin, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// GetByEmail looks up an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, err := r.getOne(ctx, getUserByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// GetByID looks up an account by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	u, err := r.getOne(ctx, getUserByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return u, nil
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*auth.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Admin, &u.CreatedAt)
	return u, err
}
