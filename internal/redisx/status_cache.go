package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
)

// StatusCache menyimpan snapshot status order. Cache bersifat best-effort:
// error Redis hanya di-log dan diperlakukan sebagai cache miss.
type StatusCache struct {
	RDB *redis.Client
}

func (c StatusCache) Get(ctx context.Context, orderID string) (orders.CachedStatus, bool) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("status cache get order=%s: %v", orderID, err)
		}
		return orders.CachedStatus{}, false
	}
	var cs orders.CachedStatus
	if err := json.Unmarshal(b, &cs); err != nil {
		log.Printf("status cache decode order=%s: %v", orderID, err)
		return orders.CachedStatus{}, false
	}
	return cs, true
}

func (c StatusCache) Set(ctx context.Context, orderID string, cs orders.CachedStatus) {
	b, err := json.Marshal(cs)
	if err != nil {
		return
	}
	if err := c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err(); err != nil {
		log.Printf("status cache set order=%s: %v", orderID, err)
	}
}

func (c StatusCache) Delete(ctx context.Context, orderID string) {
	if err := c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err(); err != nil {
		log.Printf("status cache del order=%s: %v", orderID, err)
	}
}
