package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopd/shopd/internal/domain/coupon"
)

type discountRequest struct {
	ProductID    string    `json:"product"`
	Percent      int       `json:"discount"`
	Provider     string    `json:"provider"`
	CouponCode   string    `json:"coupon_code"`
	AllowedUsers int       `json:"allowed_users"`
	Expiry       time.Time `json:"expiry"`
}

type discountResponse struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product"`
	Percent      int        `json:"discount"`
	Provider     string     `json:"provider"`
	CouponCode   string     `json:"coupon_code"`
	AllowedUsers int        `json:"allowed_users"`
	Used         int        `json:"used"`
	Expiry       time.Time  `json:"expiry"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func toDiscountResponse(d *coupon.Discount) discountResponse {
	return discountResponse{
		ID:           d.ID,
		ProductID:    d.ProductID,
		Percent:      d.Percent,
		Provider:     d.Provider,
		CouponCode:   d.Code,
		AllowedUsers: d.AllowedUsers,
		Used:         d.Used,
		Expiry:       d.Expiry,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.coupons.Create(r.Context(), coupon.CreateDiscountRequest{
		ProductID:    req.ProductID,
		Percent:      req.Percent,
		Provider:     req.Provider,
		Code:         req.CouponCode,
		AllowedUsers: req.AllowedUsers,
		Expiry:       req.Expiry,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountResponse(d))
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponses(discounts))
}

func (h *Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	d, err := h.coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponse(d))
}

// listProductDiscounts returns the discounts scoped to one product. An empty
// list is a successful response, not an error.
func (h *Handler) listProductDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.coupons.ListForProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponses(discounts))
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.coupons.Update(r.Context(), chi.URLParam(r, "id"), coupon.UpdateDiscountRequest{
		ProductID:    req.ProductID,
		Percent:      req.Percent,
		Provider:     req.Provider,
		Code:         req.CouponCode,
		AllowedUsers: req.AllowedUsers,
		Expiry:       req.Expiry,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponse(d))
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "discount deleted"})
}

func toDiscountResponses(discounts []coupon.Discount) []discountResponse {
	out := make([]discountResponse, len(discounts))
	for i := range discounts {
		out[i] = toDiscountResponse(&discounts[i])
	}
	return out
}
