package cache

import (
	"context"
	"time"

	"github.com/matzehuels/flat/pkg/observability"
)

// Instrumented reports every lookup and write of c to the registered
// observability cache hooks.
func Instrumented(c Cache) Cache {
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{c}
}

type instrumented struct{ Cache }

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}
