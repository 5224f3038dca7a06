package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shopd/shopd/internal/domain/auth"
	"github.com/shopd/shopd/internal/domain/cart"
	"github.com/shopd/shopd/internal/domain/catalog"
	"github.com/shopd/shopd/internal/domain/coupon"
)

type errorResponse struct {
	Error     string `json:"error"`
	Remaining *int   `json:"remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the HTTP taxonomy: validation failures
// are 400 with a human-readable reason, missing entities are 404, credential
// problems are 401, and anything unexpected is logged and returned as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *cart.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     stockErr.Error(),
			Remaining: &stockErr.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, cart.ErrBadQuantity),
		errors.Is(err, cart.ErrDuplicateItem),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrExhausted),
		errors.Is(err, coupon.ErrBadPercent),
		errors.Is(err, coupon.ErrBadAllowedUsers),
		errors.Is(err, catalog.ErrBadStock),
		errors.Is(err, catalog.ErrBadPrice),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, auth.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
