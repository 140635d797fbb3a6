package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
)

// OrderService dipenuhi oleh *orders.Service.
type OrderService interface {
	CreateOrder(ctx context.Context, p auth.Principal, req orders.CreateOrderRequest) (orders.OrderDetail, error)
	FindByID(ctx context.Context, p auth.Principal, id string) (orders.OrderDetail, error)
	FindAll(ctx context.Context, p auth.Principal, q orders.ListQuery) (orders.Page, error)
	FindByUser(ctx context.Context, p auth.Principal, userID int64, q orders.ListQuery) (orders.Page, error)
	PatchOrder(ctx context.Context, p auth.Principal, id string, req orders.PatchRequest) (orders.OrderDetail, error)
	GetStatus(ctx context.Context, p auth.Principal, id string) (orders.CachedStatus, error)
}

type OrdersHandler struct {
	Service OrderService
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.CreateOrder(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: d})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.FindByID(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: d})
}

func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cs, err := h.Service.GetStatus(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: map[string]any{
		"order_id":       id,
		"status":         cs.Status,
		"payment_status": cs.PaymentStatus,
	}})
}

func listQuery(r *http.Request) (orders.ListQuery, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return orders.ListQuery{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return orders.ListQuery{}, err
	}
	return orders.ListQuery{Status: r.URL.Query().Get("status"), Page: page, Limit: limit}, nil
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.FindAll(r.Context(), principal(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.FindByUser(r.Context(), principal(r), userID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) patch(w http.ResponseWriter, r *http.Request) {
	var req orders.PatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Service.PatchOrder(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: d})
}
