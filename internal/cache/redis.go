package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"taquilla/internal/infra"
)

const scanBatch = 200

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RedisStore keeps one pool under a key prefix so several pools and
// instances can share a Redis database. Every call goes through the breaker.
type RedisStore struct {
	rdb        redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	cb         *infra.CircuitBreaker
}

func NewRedisStore(rdb redis.UniversalClient, prefix string, defaultTTL time.Duration, cb *infra.CircuitBreaker) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, defaultTTL: defaultTTL, cb: cb}
}

func (s *RedisStore) Breaker() *infra.CircuitBreaker { return s.cb }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	hit := false
	err := s.cb.Execute(func() error {
		b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		val, hit = b, true
		return nil
	})
	return val, hit, err
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.cb.Execute(func() error {
		return s.rdb.Set(ctx, s.prefix+key, val, ttl).Err()
	})
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.cb.Execute(func() error {
		return s.rdb.Del(ctx, full...).Err()
	})
}

// scan walks every key matching the glob and returns them with the prefix
// stripped.
func (s *RedisStore) scan(ctx context.Context, match string) ([]string, error) {
	var keys []string
	err := s.cb.Execute(func() error {
		iter := s.rdb.Scan(ctx, 0, match, scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
		}
		return iter.Err()
	})
	return keys, err
}

func (s *RedisStore) Keys(ctx context.Context, substr string) ([]string, error) {
	return s.scan(ctx, globEscaper.Replace(s.prefix)+"*"+globEscaper.Replace(substr)+"*")
}

func (s *RedisStore) Flush(ctx context.Context) error {
	keys, err := s.scan(ctx, globEscaper.Replace(s.prefix)+"*")
	if err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.scan(ctx, globEscaper.Replace(s.prefix)+"*")
	return len(keys), err
}
