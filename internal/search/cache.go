package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisGetSetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider envuelve otro Provider con un cache TTL en Redis. Los fallos
// de cache nunca bloquean: se cae al provider subyacente. Solo se cachean
// outcomes sanos, nunca degradados.
type CachedProvider struct {
	inner  Provider
	client redisGetSetter
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProvider(inner Provider, client redisGetSetter, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProvider{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Search(ctx context.Context, query string) Outcome {
	key := cacheKey(query)

	cached, err := p.client.Get(ctx, key).Result()
	if err == nil {
		var snippets []string
		if err := json.Unmarshal([]byte(cached), &snippets); err == nil {
			return ok(snippets)
		}
	} else if !errors.Is(err, redis.Nil) {
		p.logger.Warn("search cache read failed", zap.Error(err))
	}

	outcome := p.inner.Search(ctx, query)
	if outcome.Degraded() {
		return outcome
	}

	encoded, err := json.Marshal(outcome.Snippets)
	if err == nil {
		if err := p.client.Set(ctx, key, encoded, p.ttl).Err(); err != nil {
			p.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return outcome
}

func cacheKey(query string) string {
	h := fnv.New64a()
	h.Write([]byte(query))
	return fmt.Sprintf("search:%x", h.Sum64())
}

var _ Provider = (*CachedProvider)(nil)
