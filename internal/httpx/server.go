package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
)

type Handlers struct {
	Orders   *OrdersHandler
	Payments *PaymentsHandler
	Webhook  *WebhookHandler
	Cart     *CartHandler
}

// NewRouter memasang semua route. Route notifikasi gateway tidak memakai JWT
// karena diverifikasi lewat signature.
func NewRouter(v *auth.Verifier, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/midtrans/notification", h.Webhook.notify)

	r.Group(func(r chi.Router) {
		r.Use(v.Middleware)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.create)
			r.With(auth.RequireAdmin).Get("/", h.Orders.list)
			r.Get("/{id}", h.Orders.get)
			r.Get("/{id}/status", h.Orders.status)
			r.With(auth.RequireAdmin).Patch("/{id}", h.Orders.patch)
			r.Post("/{id}/payment", h.Payments.create)
		})

		r.Get("/users/{userId}/orders", h.Orders.listByUser)

		r.Route("/users/{userId}/cart", func(r chi.Router) {
			r.Get("/", h.Cart.list)
			r.Post("/", h.Cart.add)
			r.Patch("/{variantId}", h.Cart.update)
			r.Delete("/{variantId}", h.Cart.remove)
		})
	})
	return r
}
