package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PrincipalCache caches resolved principals by token subject.
type PrincipalCache interface {
	Get(ctx context.Context, subject string) (*Principal, bool)
	Set(ctx context.Context, subject string, p *Principal) error
	Invalidate(ctx context.Context, subject string) error
}

// MemoryCache is a process-local PrincipalCache with a fixed TTL. Expired
// entries are dropped when read and swept from Set at most once per TTL.
type MemoryCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[string]memoryItem
	now       func() time.Time
	lastSweep time.Time
}

type memoryItem struct {
	principal Principal
	expires   time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, subject string) (*Principal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[subject]
	if !ok {
		return nil, false
	}
	if m.now().After(item.expires) {
		delete(m.items, subject)
		return nil, false
	}
	p := item.principal
	return &p, true
}

func (m *MemoryCache) Set(_ context.Context, subject string, p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= m.ttl {
		for k, item := range m.items {
			if now.After(item.expires) {
				delete(m.items, k)
			}
		}
		m.lastSweep = now
	}
	m.items[subject] = memoryItem{principal: *p, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, subject)
	return nil
}

const redisKeyPrefix = "odonto:principal:"

// RedisCache is a PrincipalCache shared between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis instance at url (redis://...).
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, subject string) (*Principal, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+subject).Bytes()
	if err != nil {
		return nil, false
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (r *RedisCache) Set(ctx context.Context, subject string, p *Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+subject, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache principal: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+subject).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate principal: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
