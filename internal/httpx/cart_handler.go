package httpx

import (
	"context"
	"net/http"

	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/cart"
)

// CartService dipenuhi oleh *cart.Service.
type CartService interface {
	Add(ctx context.Context, p auth.Principal, userID int64, req cart.ItemRequest) (cart.Line, error)
	Update(ctx context.Context, p auth.Principal, userID int64, req cart.ItemRequest) (cart.Line, error)
	Remove(ctx context.Context, p auth.Principal, userID, variantID int64) error
	List(ctx context.Context, p auth.Principal, userID int64) (cart.Cart, error)
}

type CartHandler struct {
	Service CartService
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Service.List(r.Context(), principal(r), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: c})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req cart.ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := h.Service.Add(r.Context(), principal(r), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: l})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	variantID, err := pathInt(r, "variantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := h.Service.Update(r.Context(), principal(r), userID, cart.ItemRequest{ProductVariantID: variantID, Quantity: body.Quantity})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: l})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	variantID, err := pathInt(r, "variantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Remove(r.Context(), principal(r), userID, variantID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
