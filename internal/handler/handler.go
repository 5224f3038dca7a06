// Package handler exposes the domain services over HTTP as a JSON API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopd/shopd/internal/domain/auth"
	"github.com/shopd/shopd/internal/domain/cart"
	"github.com/shopd/shopd/internal/domain/catalog"
	"github.com/shopd/shopd/internal/domain/coupon"
)

// AuthService is the slice of the auth service the handlers need.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, email, password string) (string, *auth.User, error)
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

// CatalogService is the slice of the catalog service the handlers need.
type CatalogService interface {
	Create(ctx context.Context, req catalog.CreateProductRequest) (*catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	List(ctx context.Context) ([]catalog.Product, error)
	Update(ctx context.Context, id string, req catalog.UpdateProductRequest) (*catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

// CouponService is the slice of the coupon service the handlers need.
type CouponService interface {
	Create(ctx context.Context, req coupon.CreateDiscountRequest) (*coupon.Discount, error)
	Get(ctx context.Context, id string) (*coupon.Discount, error)
	List(ctx context.Context) ([]coupon.Discount, error)
	ListForProduct(ctx context.Context, productID string) ([]coupon.Discount, error)
	Update(ctx context.Context, id string, req coupon.UpdateDiscountRequest) (*coupon.Discount, error)
	Delete(ctx context.Context, id string) error
}

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	AddItem(ctx context.Context, userID string, req cart.AddItemRequest) (*cart.Item, error)
	UpdateItem(ctx context.Context, userID, itemID string, req cart.UpdateItemRequest) (*cart.Item, error)
	GetItem(ctx context.Context, userID, itemID string) (*cart.Item, error)
	ListForUser(ctx context.Context, userID string) ([]cart.Item, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
	Buy(ctx context.Context, userID, itemID string) error
}

// Handler holds the services behind the HTTP API.
type Handler struct {
	auth     AuthService
	products CatalogService
	coupons  CouponService
	carts    CartService
}

// NewHandler constructs a Handler with the required services.
func NewHandler(auth AuthService, products CatalogService, coupons CouponService, carts CartService) *Handler {
	return &Handler{
		auth:     auth,
		products: products,
		coupons:  coupons,
		carts:    carts,
	}
}

// NewRouter mounts all API routes on a chi router. Everything except
// registration and login requires a bearer token; catalog and discount
// mutation additionally requires an admin account.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/products", h.listProducts)
			r.Get("/products/{id}", h.getProduct)
			r.Get("/products/{id}/discounts", h.listProductDiscounts)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.listCart)
				r.Post("/", h.addCartItem)
				r.Get("/{id}", h.getCartItem)
				r.Put("/{id}", h.updateCartItem)
				r.Delete("/{id}", h.deleteCartItem)
				r.Post("/{id}/buy", h.buyCartItem)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/products", h.createProduct)
				r.Put("/products/{id}", h.updateProduct)
				r.Delete("/products/{id}", h.deleteProduct)

				r.Get("/discounts", h.listDiscounts)
				r.Post("/discounts", h.createDiscount)
				r.Get("/discounts/{id}", h.getDiscount)
				r.Put("/discounts/{id}", h.updateDiscount)
				r.Delete("/discounts/{id}", h.deleteDiscount)
			})
		})
	})

	return r
}
