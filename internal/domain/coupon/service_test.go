package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopd/shopd/internal/domain/catalog"
)

type memDiscounts struct {
	byID map[string]*Discount
}

func newMemDiscounts() *memDiscounts {
	return &memDiscounts{byID: make(map[string]*Discount)}
}

func (m *memDiscounts) Create(_ context.Context, d *Discount) error {
	m.byID[d.ID] = d
	return nil
}

func (m *memDiscounts) GetByID(_ context.Context, id string) (*Discount, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cd := *d
	return &cd, nil
}

func (m *memDiscounts) List(_ context.Context) ([]Discount, error) {
	out := make([]Discount, 0, len(m.byID))
	for _, d := range m.byID {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDiscounts) ListByProduct(_ context.Context, productID string) ([]Discount, error) {
	var out []Discount
	for _, d := range m.byID {
		if d.ProductID == productID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDiscounts) FindByProductAndCode(_ context.Context, productID, code string) (*Discount, error) {
	for _, d := range m.byID {
		if d.ProductID == productID && d.Code == code {
			cd := *d
			return &cd, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memDiscounts) Update(_ context.Context, d *Discount) error {
	m.byID[d.ID] = d
	return nil
}

func (m *memDiscounts) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memProducts struct {
	byID map[string]*catalog.Product
}

func (m *memProducts) Create(_ context.Context, p *catalog.Product) error { m.byID[p.ID] = p; return nil }

func (m *memProducts) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) List(_ context.Context) ([]catalog.Product, error)     { return nil, nil }
func (m *memProducts) Update(_ context.Context, _ *catalog.Product) error    { return nil }
func (m *memProducts) Delete(_ context.Context, _ string) error              { return nil }

type rescaleCall struct {
	productID string
	code      string
	percent   int
}

type mockRescaler struct {
	calls []rescaleCall
}

func (m *mockRescaler) RescaleLines(_ context.Context, productID, couponCode string, percent int) error {
	m.calls = append(m.calls, rescaleCall{productID: productID, code: couponCode, percent: percent})
	return nil
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memDiscounts, *mockRescaler) {
	t.Helper()
	discounts := newMemDiscounts()
	products := &memProducts{byID: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "widget", Price: decimal.RequireFromString("100.00"), Stock: 10},
	}}
	rescaler := &mockRescaler{}
	svc := NewService(discounts, products, rescaler)
	svc.now = func() time.Time { return fixedNow }
	return svc, discounts, rescaler
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateDiscountRequest
		wantErr error
	}{
		{
			name: "valid",
			req:  CreateDiscountRequest{ProductID: "p1", Percent: 20, Code: "SAVE20", AllowedUsers: 5},
		},
		{
			name:    "percent above 100",
			req:     CreateDiscountRequest{ProductID: "p1", Percent: 120, Code: "X"},
			wantErr: ErrBadPercent,
		},
		{
			name:    "negative percent",
			req:     CreateDiscountRequest{ProductID: "p1", Percent: -1, Code: "X"},
			wantErr: ErrBadPercent,
		},
		{
			name:    "negative cap",
			req:     CreateDiscountRequest{ProductID: "p1", Percent: 10, Code: "X", AllowedUsers: -1},
			wantErr: ErrBadAllowedUsers,
		},
		{
			name:    "unknown product",
			req:     CreateDiscountRequest{ProductID: "ghost", Percent: 10, Code: "X"},
			wantErr: catalog.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)

			d, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 0, d.Used)
			assert.Equal(t, tt.req.Percent, d.Percent)
		})
	}
}

func TestService_Create_DefaultExpiry(t *testing.T) {
	svc, _, _ := newTestService(t)

	d, err := svc.Create(context.Background(), CreateDiscountRequest{
		ProductID: "p1", Percent: 10, Code: "TENOFF", AllowedUsers: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(10*24*time.Hour), d.Expiry)
}

func TestService_Update_CascadesOnPercentChange(t *testing.T) {
	svc, discounts, rescaler := newTestService(t)
	discounts.byID["d1"] = &Discount{
		ID: "d1", ProductID: "p1", Percent: 10, Code: "SAVE10", AllowedUsers: 5,
		Expiry: fixedNow.Add(24 * time.Hour),
	}

	d, err := svc.Update(context.Background(), "d1", UpdateDiscountRequest{
		ProductID: "p1", Percent: 20, Code: "SAVE10", AllowedUsers: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, d.Percent)

	require.Len(t, rescaler.calls, 1)
	assert.Equal(t, rescaleCall{productID: "p1", code: "SAVE10", percent: 20}, rescaler.calls[0])
}

func TestService_Update_NoCascadeOnOtherFields(t *testing.T) {
	svc, discounts, rescaler := newTestService(t)
	discounts.byID["d1"] = &Discount{
		ID: "d1", ProductID: "p1", Percent: 10, Code: "SAVE10", AllowedUsers: 5,
		Expiry: fixedNow.Add(24 * time.Hour),
	}

	d, err := svc.Update(context.Background(), "d1", UpdateDiscountRequest{
		ProductID: "p1", Percent: 10, Code: "RENAMED", Provider: "acme", AllowedUsers: 9,
		Expiry: fixedNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "RENAMED", d.Code)
	assert.Equal(t, 9, d.AllowedUsers)
	assert.Empty(t, rescaler.calls)
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "ghost", UpdateDiscountRequest{ProductID: "p1", Percent: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListForProduct_EmptyIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.ListForProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscount_Redeemable(t *testing.T) {
	future := fixedNow.Add(time.Hour)
	past := fixedNow.Add(-time.Hour)

	tests := []struct {
		name string
		d    Discount
		want bool
	}{
		{name: "fresh", d: Discount{Expiry: future, AllowedUsers: 1, Used: 0}, want: true},
		{name: "expired", d: Discount{Expiry: past, AllowedUsers: 1, Used: 0}, want: false},
		{name: "at cap", d: Discount{Expiry: future, AllowedUsers: 1, Used: 1}, want: false},
		{name: "zero cap never redeemable", d: Discount{Expiry: future, AllowedUsers: 0, Used: 0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Redeemable(fixedNow))
		})
	}
}
