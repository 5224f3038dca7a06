package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopd/shopd/internal/domain/auth"
	"github.com/shopd/shopd/internal/domain/cart"
	"github.com/shopd/shopd/internal/domain/catalog"
	"github.com/shopd/shopd/internal/domain/coupon"
)

var (
	testUser  = &auth.User{ID: "u1", Email: "user@example.com", Username: "user"}
	testAdmin = &auth.User{ID: "a1", Email: "admin@example.com", Username: "admin", Admin: true}
)

// mockAuth resolves fixed tokens to fixed accounts.
type mockAuth struct {
	registerErr error
	loginErr    error
}

func (m *mockAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &auth.User{ID: "new", Email: req.Email, Username: req.Username, CreatedAt: time.Now()}, nil
}

func (m *mockAuth) Login(_ context.Context, email, _ string) (string, *auth.User, error) {
	if m.loginErr != nil {
		return "", nil, m.loginErr
	}
	return "issued-token", &auth.User{ID: "u1", Email: email}, nil
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (*auth.User, error) {
	switch token {
	case "user-token":
		return testUser, nil
	case "admin-token":
		return testAdmin, nil
	default:
		return nil, auth.ErrInvalidToken
	}
}

type mockCatalog struct {
	products map[string]*catalog.Product
	err      error
}

func (m *mockCatalog) Create(_ context.Context, req catalog.CreateProductRequest) (*catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &catalog.Product{ID: "p-new", Name: req.Name, Price: req.Price, Stock: req.Stock, CreatedAt: time.Now()}, nil
}

func (m *mockCatalog) Get(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) List(context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockCatalog) Update(_ context.Context, id string, req catalog.UpdateProductRequest) (*catalog.Product, error) {
	if _, ok := m.products[id]; !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Product{ID: id, Name: req.Name, Price: req.Price, Stock: req.Stock}, nil
}

func (m *mockCatalog) Delete(_ context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return catalog.ErrNotFound
	}
	return nil
}

type mockCoupons struct {
	discounts map[string]*coupon.Discount
}

func (m *mockCoupons) Create(_ context.Context, req coupon.CreateDiscountRequest) (*coupon.Discount, error) {
	if req.Percent < 0 || req.Percent > 100 {
		return nil, coupon.ErrBadPercent
	}
	return &coupon.Discount{ID: "d-new", ProductID: req.ProductID, Percent: req.Percent, Code: req.Code}, nil
}

func (m *mockCoupons) Get(_ context.Context, id string) (*coupon.Discount, error) {
	if d, ok := m.discounts[id]; ok {
		return d, nil
	}
	return nil, coupon.ErrNotFound
}

func (m *mockCoupons) List(context.Context) ([]coupon.Discount, error) {
	out := make([]coupon.Discount, 0, len(m.discounts))
	for _, d := range m.discounts {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockCoupons) ListForProduct(_ context.Context, productID string) ([]coupon.Discount, error) {
	var out []coupon.Discount
	for _, d := range m.discounts {
		if d.ProductID == productID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockCoupons) Update(_ context.Context, id string, req coupon.UpdateDiscountRequest) (*coupon.Discount, error) {
	if _, ok := m.discounts[id]; !ok {
		return nil, coupon.ErrNotFound
	}
	return &coupon.Discount{ID: id, ProductID: req.ProductID, Percent: req.Percent, Code: req.Code}, nil
}

func (m *mockCoupons) Delete(_ context.Context, id string) error {
	if _, ok := m.discounts[id]; !ok {
		return coupon.ErrNotFound
	}
	return nil
}

type mockCarts struct {
	addErr    error
	updateErr error
	buyErr    error
	items     []cart.Item
}

func (m *mockCarts) AddItem(_ context.Context, userID string, req cart.AddItemRequest) (*cart.Item, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &cart.Item{
		ID: "i-new", UserID: userID, ProductID: req.ProductID,
		Quantity: req.Quantity, CouponCode: req.CouponCode,
		Rate: decimal.RequireFromString("80.00"), Total: decimal.RequireFromString("160.00"),
	}, nil
}

func (m *mockCarts) UpdateItem(_ context.Context, userID, itemID string, req cart.UpdateItemRequest) (*cart.Item, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &cart.Item{ID: itemID, UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}, nil
}

func (m *mockCarts) GetItem(_ context.Context, userID, itemID string) (*cart.Item, error) {
	for _, it := range m.items {
		if it.ID == itemID && it.UserID == userID {
			return &it, nil
		}
	}
	return nil, cart.ErrNotFound
}

func (m *mockCarts) ListForUser(_ context.Context, userID string) ([]cart.Item, error) {
	var out []cart.Item
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockCarts) DeleteItem(_ context.Context, userID, itemID string) error {
	if _, err := m.GetItem(context.Background(), userID, itemID); err != nil {
		return err
	}
	return nil
}

func (m *mockCarts) Buy(_ context.Context, userID, itemID string) error {
	if m.buyErr != nil {
		return m.buyErr
	}
	_, err := m.GetItem(context.Background(), userID, itemID)
	return err
}

type testEnv struct {
	auth    *mockAuth
	catalog *mockCatalog
	coupons *mockCoupons
	carts   *mockCarts
	router  http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		auth: &mockAuth{},
		catalog: &mockCatalog{products: map[string]*catalog.Product{
			"p1": {ID: "p1", Name: "Waffle", Price: decimal.RequireFromString("6.50"), Stock: 40},
		}},
		coupons: &mockCoupons{discounts: map[string]*coupon.Discount{
			"d1": {ID: "d1", ProductID: "p1", Percent: 20, Code: "SAVE20", AllowedUsers: 5},
		}},
		carts: &mockCarts{},
	}
	env.router = NewRouter(NewHandler(env.auth, env.catalog, env.coupons, env.carts))
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("register", func(t *testing.T) {
		env := newTestEnv()
		w := env.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{
			Email: "new@example.com", Username: "new", Password: "secret",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeBody[userResponse](t, w)
		assert.Equal(t, "new@example.com", resp.Email)
	})

	t.Run("register duplicate email", func(t *testing.T) {
		env := newTestEnv()
		env.auth.registerErr = auth.ErrEmailTaken
		w := env.do(t, http.MethodPost, "/api/auth/register", "", registerRequest{Email: "dup@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login", func(t *testing.T) {
		env := newTestEnv()
		w := env.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "user@example.com", Password: "secret"})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[loginResponse](t, w)
		assert.Equal(t, "issued-token", resp.Token)
	})

	t.Run("login bad credentials", func(t *testing.T) {
		env := newTestEnv()
		env.auth.loginErr = auth.ErrInvalidCredentials
		w := env.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "user@example.com"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv()

	t.Run("missing token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products", "user-token", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminGating(t *testing.T) {
	env := newTestEnv()
	body := productRequest{Name: "Cake", Price: decimal.RequireFromString("3.00"), Stock: 10}

	t.Run("regular user forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/products", "user-token", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/products", "admin-token", body)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("discount routes admin only", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/discounts", "user-token", nil).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/discounts", "admin-token", nil).Code)
	})
}

func TestProductEndpoints(t *testing.T) {
	env := newTestEnv()

	t.Run("get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products/p1", "user-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[productResponse](t, w)
		assert.Equal(t, "Waffle", resp.Name)
		assert.True(t, resp.Price.Equal(decimal.RequireFromString("6.50")))
	})

	t.Run("get missing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products/nope", "user-token", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/products/p1", "admin-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[map[string]string](t, w)
		assert.Equal(t, "item deleted from the store", resp["message"])
	})

	t.Run("list product discounts", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products/p1/discounts", "user-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[[]discountResponse](t, w)
		require.Len(t, resp, 1)
		assert.Equal(t, "SAVE20", resp[0].CouponCode)
	})
}

func TestCartEndpoints(t *testing.T) {
	t.Run("add item", func(t *testing.T) {
		env := newTestEnv()
		w := env.do(t, http.MethodPost, "/api/cart", "user-token", cartItemRequest{
			ProductID: "p1", Quantity: 2, Coupon: "SAVE20",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeBody[cartItemResponse](t, w)
		assert.Equal(t, "u1", resp.UserID)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("160.00")))
	})

	t.Run("insufficient stock carries remaining", func(t *testing.T) {
		env := newTestEnv()
		env.carts.addErr = &cart.InsufficientStockError{Remaining: 3}
		w := env.do(t, http.MethodPost, "/api/cart", "user-token", cartItemRequest{ProductID: "p1", Quantity: 10})
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeBody[errorResponse](t, w)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, 3, *resp.Remaining)
		assert.Contains(t, resp.Error, "remaining in the stock")
	})

	t.Run("exhausted coupon", func(t *testing.T) {
		env := newTestEnv()
		env.carts.addErr = coupon.ErrExhausted
		w := env.do(t, http.MethodPost, "/api/cart", "user-token", cartItemRequest{ProductID: "p1", Quantity: 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list scoped to user", func(t *testing.T) {
		env := newTestEnv()
		env.carts.items = []cart.Item{
			{ID: "i1", UserID: "u1", ProductID: "p1"},
			{ID: "i2", UserID: "someone-else", ProductID: "p1"},
		}
		w := env.do(t, http.MethodGet, "/api/cart", "user-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[[]cartItemResponse](t, w)
		require.Len(t, resp, 1)
		assert.Equal(t, "i1", resp[0].ID)
	})

	t.Run("buy", func(t *testing.T) {
		env := newTestEnv()
		env.carts.items = []cart.Item{{ID: "i1", UserID: "u1", ProductID: "p1"}}
		w := env.do(t, http.MethodPost, "/api/cart/i1/buy", "user-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[map[string]string](t, w)
		assert.Equal(t, "item bought successfully", resp["message"])
	})

	t.Run("buy missing item", func(t *testing.T) {
		env := newTestEnv()
		env.carts.buyErr = cart.ErrNotFound
		w := env.do(t, http.MethodPost, "/api/cart/nope/buy", "user-token", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		env := newTestEnv()
		env.carts.items = []cart.Item{{ID: "i1", UserID: "u1", ProductID: "p1"}}
		w := env.do(t, http.MethodDelete, "/api/cart/i1", "user-token", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[map[string]string](t, w)
		assert.Equal(t, "item deleted from the cart", resp["message"])
	})
}

func TestDiscountEndpoints(t *testing.T) {
	env := newTestEnv()

	t.Run("create", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/discounts", "admin-token", discountRequest{
			ProductID: "p1", Percent: 30, CouponCode: "SAVE30", AllowedUsers: 10,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeBody[discountResponse](t, w)
		assert.Equal(t, 30, resp.Percent)
	})

	t.Run("create bad percent", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/discounts", "admin-token", discountRequest{
			ProductID: "p1", Percent: 150, CouponCode: "TOOMUCH",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/discounts/nope", "admin-token", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
