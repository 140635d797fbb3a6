package orders

import (
	"context"
	"fmt"
	"log"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/gateway"
)

// Notification adalah body HTTP notification dari gateway.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
}

type Reconciler struct {
	Store       Store
	ServerKey   string
	Cache       StatusCache // optional
	Events      Publisher   // optional
	ServiceName string
}

// Handle memverifikasi signature lalu menulis status order & payment sesuai tabel mapping.
// Tidak ada guard transisi: notifikasi yang sama dikirim ulang menghasilkan state yang sama.
func (r *Reconciler) Handle(ctx context.Context, n Notification) error {
	if !gateway.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, r.ServerKey, n.SignatureKey) {
		return apperr.Invalid("Invalid signature key")
	}

	if _, err := r.Store.GetOrder(ctx, n.OrderID); err != nil {
		return err
	}
	log.Printf("gateway notification order=%s transaction_status=%s", n.OrderID, n.TransactionStatus)

	pair, ok := MapTransactionStatus(n.TransactionStatus)
	if !ok {
		return apperr.Invalid("Unsupported transaction status")
	}

	if err := r.Store.ApplyStatus(ctx, n.OrderID, pair); err != nil {
		return fmt.Errorf("apply status: %w", err)
	}
	if r.Cache != nil {
		r.Cache.Delete(ctx, n.OrderID)
	}

	publish(ctx, r.Events, TopicOrderStatusChanged, EventOrderStatusChanged, r.ServiceName, n.OrderID, OrderStatusChangedPayload{
		OrderID: n.OrderID, OrderStatus: pair.Order, PaymentStatus: pair.Payment, Source: "webhook",
	})
	return nil
}
