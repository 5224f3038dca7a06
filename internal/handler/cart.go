package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopd/shopd/internal/domain/cart"
)

type cartItemRequest struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	Coupon    string `json:"coupon"`
}

type cartItemResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user"`
	ProductID string          `json:"product"`
	Quantity  int             `json:"quantity"`
	Coupon    string          `json:"coupon"`
	Rate      decimal.Decimal `json:"rate"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func toCartItemResponse(it *cart.Item) cartItemResponse {
	return cartItemResponse{
		ID:        it.ID,
		UserID:    it.UserID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Coupon:    it.CouponCode,
		Rate:      it.Rate,
		Total:     it.Total,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u := UserFromContext(r.Context())
	item, err := h.carts.AddItem(r.Context(), u.ID, cart.AddItemRequest{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		CouponCode: req.Coupon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartItemResponse(item))
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	items, err := h.carts.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]cartItemResponse, len(items))
	for i := range items {
		out[i] = toCartItemResponse(&items[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCartItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	item, err := h.carts.GetItem(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u := UserFromContext(r.Context())
	item, err := h.carts.UpdateItem(r.Context(), u.ID, chi.URLParam(r, "id"), cart.UpdateItemRequest{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		CouponCode: req.Coupon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

func (h *Handler) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if err := h.carts.DeleteItem(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted from the cart"})
}

func (h *Handler) buyCartItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if err := h.carts.Buy(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item bought successfully"})
}
