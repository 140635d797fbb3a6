package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, p auth.Principal, orderID string, req orders.CreatePaymentRequest) (orders.Payment, error)
}

type PaymentsHandler struct {
	Service PaymentService
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orders.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pay, err := h.Service.CreatePayment(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: pay})
}

// Notifier dipenuhi oleh *orders.Reconciler.
type Notifier interface {
	Handle(ctx context.Context, n orders.Notification) error
}

type WebhookHandler struct {
	Reconciler Notifier
}

// notify membalas 200 tanpa body kalau sukses; gateway me-retry selain 2xx.
func (h *WebhookHandler) notify(w http.ResponseWriter, r *http.Request) {
	var n orders.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Reconciler.Handle(r.Context(), n); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
