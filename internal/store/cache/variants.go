package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// VariantStore caches transformed image bytes so identical transform
// requests against the same source skip the engine entirely.
type VariantStore struct {
	rdb *redis.Client
}

const VariantExpTime = 30 * time.Minute

// VariantKey derives the cache key for a transform of filename from the raw
// operation payload. The payload is hashed as-sent: two requests produce the
// same key only when their op lists are byte-identical, which is exactly the
// case where the deterministic pipeline produces the same output.
func VariantKey(filename string, ops []byte) string {
	d := xxhash.New()
	d.WriteString(filename)
	d.Write(ops)
	return fmt.Sprintf("variant-%x", d.Sum64())
}

func (s *VariantStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return data, nil
}

func (s *VariantStore) Set(ctx context.Context, key string, buf []byte) error {
	return s.rdb.SetEx(ctx, key, buf, VariantExpTime).Err()
}
