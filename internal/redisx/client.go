package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// MarkOnce menandai event sudah diproses. false berarti event duplikat.
func MarkOnce(ctx context.Context, rdb *redis.Client, service, eventID string) (bool, error) {
	return rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), 1, TTLDedup).Result()
}

// Forget menghapus tanda dedup, dipakai kalau handler gagal supaya retry tidak di-skip.
func Forget(ctx context.Context, rdb *redis.Client, service, eventID string) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}

// Dedup membungkus MarkOnce/Forget untuk dipakai consumer.
type Dedup struct{ RDB *redis.Client }

func (d Dedup) MarkOnce(ctx context.Context, service, eventID string) (bool, error) {
	return MarkOnce(ctx, d.RDB, service, eventID)
}

func (d Dedup) Forget(ctx context.Context, service, eventID string) error {
	return Forget(ctx, d.RDB, service, eventID)
}
