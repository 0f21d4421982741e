// Package testutil provides shared in-memory fakes for service-level tests.
package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
)

// MemCache is an in-memory redis.Cache. Values round-trip through JSON so
// tests observe the same serialization behavior as the real cache. TTLs are
// recorded but never enforced.
type MemCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	ttls  map[string]time.Duration
	zsets map[string]map[string]float64

	// FailAll makes every call return ErrDown, simulating an outage.
	FailAll bool
}

// ErrDown is returned by every MemCache call while FailAll is set.
var ErrDown = redis.ErrConnectionFailed

func NewMemCache() *MemCache {
	return &MemCache{
		data:  make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
		zsets: make(map[string]map[string]float64),
	}
}

var _ redis.Cache = (*MemCache)(nil)

func (m *MemCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	data, ok := m.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *MemCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	m.ttls[key] = ttl
	return nil
}

func (m *MemCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	for _, k := range keys {
		delete(m.data, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *MemCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return false, ErrDown
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *MemCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, ErrDown
	}
	out := make(map[string][]byte)
	for _, k := range keys {
		if data, ok := m.data[k]; ok {
			out[k] = data
		}
	}
	return out, nil
}

func (m *MemCache) MSet(ctx context.Context, items map[string]interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	for k, v := range items {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		m.data[k] = data
		m.ttls[k] = ttl
	}
	return nil
}

func (m *MemCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := m.Get(ctx, key, dest); err == nil {
		return nil
	} else if err != redis.ErrCacheMiss {
		return err
	}
	val, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, val, ttl); err != nil {
		return err
	}
	return m.Get(ctx, key, dest)
}

func (m *MemCache) ZAdd(ctx context.Context, key string, members ...redis.ZMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	zset, ok := m.zsets[key]
	if !ok {
		zset = make(map[string]float64)
		m.zsets[key] = zset
	}
	for _, mem := range members {
		zset[mem.Member] = mem.Score
	}
	return nil
}

func (m *MemCache) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, ErrDown
	}
	zset := m.zsets[key]
	members := make([]redis.ZMember, 0, len(zset))
	for member, score := range zset {
		members = append(members, redis.ZMember{Member: member, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member > members[j].Member
	})
	if start >= int64(len(members)) {
		return nil, nil
	}
	end := stop + 1
	if end > int64(len(members)) || stop < 0 {
		end = int64(len(members))
	}
	return members[start:end], nil
}

func (m *MemCache) ZRem(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	zset := m.zsets[key]
	for _, mem := range members {
		delete(zset, mem)
	}
	return nil
}

func (m *MemCache) ZScore(ctx context.Context, key, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return 0, ErrDown
	}
	score, ok := m.zsets[key][member]
	if !ok {
		return 0, redis.ErrCacheMiss
	}
	return score, nil
}

func (m *MemCache) ZCard(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return 0, ErrDown
	}
	return int64(len(m.zsets[key])), nil
}

func (m *MemCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return ErrDown
	}
	m.ttls[key] = ttl
	return nil
}

func (m *MemCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return 0, ErrDown
	}
	return m.ttls[key], nil
}

func (m *MemCache) Ping(ctx context.Context) error {
	if m.FailAll {
		return ErrDown
	}
	return nil
}

// Contains reports whether the key is cached.
func (m *MemCache) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// ZSetScore returns the member's score and presence without error mapping.
func (m *MemCache) ZSetScore(key, member string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.zsets[key][member]
	return score, ok
}
