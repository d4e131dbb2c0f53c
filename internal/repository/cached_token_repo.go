package repository

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore is the contract the push pipeline needs from token storage.
type TokenStore interface {
	Resolve(ctx context.Context, uid string) ([]string, error)
	Prune(ctx context.Context, uid string, invalidTokens []string) error
}

// CacheClient is the subset of cache commands the decorator needs.
type CacheClient interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedTokenRepository adds read-aside caching to a TokenStore. Cache
// failures are swallowed: caching is an optimization, Firestore stays the
// source of truth.
type CachedTokenRepository struct {
	store TokenStore
	cache CacheClient
	ttl   time.Duration
}

func NewCachedTokenRepository(store TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenRepository {
	return &CachedTokenRepository{store: store, cache: cache, ttl: ttl}
}

// Resolve serves from cache when possible, falling back to the real store.
func (r *CachedTokenRepository) Resolve(ctx context.Context, uid string) ([]string, error) {
	key := cacheKey(uid)

	var cached []string
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	tokens, err := r.store.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, tokens, r.ttl); err != nil {
		log.Printf("⚠️ Failed to cache tokens for %s: %v", uid, err)
	}
	return tokens, nil
}

// Prune writes through to the real store, then invalidates the cached set so
// pruned tokens stop being served immediately.
func (r *CachedTokenRepository) Prune(ctx context.Context, uid string, invalidTokens []string) error {
	if err := r.store.Prune(ctx, uid, invalidTokens); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, cacheKey(uid)); err != nil {
		log.Printf("⚠️ Failed to invalidate token cache for %s: %v", uid, err)
	}
	return nil
}

func cacheKey(uid string) string {
	return "push:tokens:" + uid
}

// RedisCache adapts go-redis to the CacheClient interface, storing values as
// JSON.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
