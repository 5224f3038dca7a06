// Package auth holds user identity: registration, credential verification,
// and bearer-token issuance for the API.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a referenced user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is wrong.
	// Deliberately indistinguishable between the two cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// User is an account able to own a cart. Admin accounts may additionally
// manage the catalog and discounts.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}

// Repository defines storage operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByEmail returns ErrNotFound when no account uses the email.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
