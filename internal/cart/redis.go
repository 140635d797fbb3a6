package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ArrzGeraldy/api-ecommerce/internal/redisx"
)

// RedisStore: hash cart:{user_id}, field = variant_id, value = qty.
type RedisStore struct {
	RDB *redis.Client
}

var _ Store = RedisStore{}

func key(userID int64) string { return fmt.Sprintf(redisx.KeyCart, userID) }

func (s RedisStore) Get(ctx context.Context, userID, variantID int64) (int, bool, error) {
	n, err := s.RDB.HGet(ctx, key(userID), strconv.FormatInt(variantID, 10)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s RedisStore) Set(ctx context.Context, userID, variantID int64, qty int) error {
	k := key(userID)
	_, err := s.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, strconv.FormatInt(variantID, 10), qty)
		pipe.Expire(ctx, k, redisx.TTLCart)
		return nil
	})
	return err
}

func (s RedisStore) Delete(ctx context.Context, userID, variantID int64) (bool, error) {
	n, err := s.RDB.HDel(ctx, key(userID), strconv.FormatInt(variantID, 10)).Result()
	return n > 0, err
}

func (s RedisStore) All(ctx context.Context, userID int64) (map[int64]int, error) {
	raw, err := s.RDB.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(raw))
	for f, v := range raw {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[id] = qty
	}
	return out, nil
}
