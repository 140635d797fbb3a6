package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"user_id":..,"status":"..","payment_status":".."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Keranjang per user: hash cart:{user_id}, field = variant_id, value = qty
	KeyCart = "cart:%d"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLCart        = 30 * 24 * time.Hour
)
