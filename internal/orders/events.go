package orders

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventPaymentInitiated   = "PaymentInitiated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockReleased      = "StockReleased"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemQty struct {
	ProductVariantID int64 `json:"product_variant_id"`
	Qty              int   `json:"qty"`
}

type ItemAmount struct {
	ProductVariantID int64 `json:"product_variant_id"`
	Qty              int   `json:"qty"`
	Amount           int64 `json:"amount"`
}

type OrderCreatedPayload struct {
	OrderID   string       `json:"order_id"`
	UserID    int64        `json:"user_id"`
	Items     []ItemAmount `json:"items"`
	BasePrice int64        `json:"base_price"`
}

type PaymentInitiatedPayload struct {
	OrderID    string    `json:"order_id"`
	Bank       string    `json:"bank"`
	VANumber   string    `json:"va_number"`
	ExpiryTime time.Time `json:"expiry_time"`
	FinalPrice int64     `json:"final_price"`
}

type OrderStatusChangedPayload struct {
	OrderID       string        `json:"order_id"`
	OrderStatus   Status        `json:"order_status,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	Source        string        `json:"source"` // webhook | admin
}

type StockReleasedPayload struct {
	OrderID  string `json:"order_id"`
	Released int    `json:"released"` // jumlah baris reservation yang dikembalikan
}

// Publisher dipenuhi oleh kafka.Producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

func newEnvelope(ctx context.Context, eventType, producer, orderID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

// Publish membungkus payload dalam Envelope lalu mengirimnya ke topic.
func Publish(ctx context.Context, p Publisher, topic, eventType, producer, orderID string, payload any) {
	publish(ctx, p, topic, eventType, producer, orderID, payload)
}

// publish bersifat best-effort: DB sudah commit, event gagal hanya di-log.
func publish(ctx context.Context, p Publisher, topic, eventType, producer, orderID string, payload any) {
	if p == nil {
		return
	}
	ev, err := newEnvelope(ctx, eventType, producer, orderID, payload)
	if err != nil {
		log.Printf("event %s order=%s: %v", eventType, orderID, err)
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event %s order=%s: %v", eventType, orderID, err)
		return
	}
	p.Publish(topic, PartitionKey(orderID), b,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
