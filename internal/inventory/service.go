package inventory

import (
	"context"
	"fmt"
	"log"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ArrzGeraldy/api-ecommerce/internal/kafka"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
)

// Releaser dipenuhi oleh orders.ReservationRepo.
type Releaser interface {
	ReleaseAll(ctx context.Context, orderID string) (int, error)
}

// Deduper dipenuhi oleh redisx.Dedup.
type Deduper interface {
	MarkOnce(ctx context.Context, service, eventID string) (bool, error)
	Forget(ctx context.Context, service, eventID string) error
}

type Service struct {
	Repo        Releaser
	Dedup       Deduper
	Events      orders.Publisher // optional, publish stock.released
	ServiceName string
}

// HandleStatusChanged: dipasang sebagai handler consumer order.status.changed.
// Order yang berubah ke canceled mengembalikan stok yang di-reserve saat checkout.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	// header x-event-type (kalau ada) cukup untuk skip event lain tanpa decode
	if et := kafkax.Header(m.Headers, "x-event-type"); et != "" && et != orders.EventOrderStatusChanged {
		return nil
	}

	// 1) decode envelope
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Printf("inventory: skip malformed message offset=%d: %v", m.Offset, err)
		return nil // poison message, jangan di-retry terus
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		log.Printf("inventory: skip event=%s: %v", env.EventID, err)
		return nil
	}
	if p.OrderStatus != orders.StatusCanceled {
		return nil
	}

	// 2) dedup via Redis (pakai event_id)
	first, err := s.Dedup.MarkOnce(ctx, s.ServiceName, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup event=%s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}

	// 3) release; ReleaseAll sendiri idempotent, jadi event beda untuk order yang sama aman
	n, err := s.Repo.ReleaseAll(ctx, p.OrderID)
	if err != nil {
		if ferr := s.Dedup.Forget(ctx, s.ServiceName, env.EventID); ferr != nil {
			log.Printf("inventory: forget dedup event=%s: %v", env.EventID, ferr)
		}
		return fmt.Errorf("release order=%s: %w", p.OrderID, err)
	}
	log.Printf("inventory: released order=%s reservations=%d source=%s trace=%s", p.OrderID, n, p.Source, env.TraceID)

	if n > 0 {
		orders.Publish(ctx, s.Events, orders.TopicStockReleased, orders.EventStockReleased, s.ServiceName, p.OrderID,
			orders.StockReleasedPayload{OrderID: p.OrderID, Released: n})
	}
	return nil
}
