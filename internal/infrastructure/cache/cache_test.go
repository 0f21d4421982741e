package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/redis"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
)

// memCache is an in-memory redis.Cache used to test the adapters without a
// live connection.
type memCache struct {
	mu   sync.Mutex
	kv   map[string][]byte
	zset map[string]map[string]float64
	err  error
}

func newMemCache() *memCache {
	return &memCache{kv: map[string][]byte{}, zset: map[string]map[string]float64{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, ok := m.kv[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.kv[key] = data
	return nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.kv, k)
	}
	return nil
}

func (m *memCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.kv[key]
	return ok, nil
}

func (m *memCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := map[string][]byte{}
	for _, k := range keys {
		if v, ok := m.kv[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (m *memCache) MSet(ctx context.Context, items map[string]interface{}, ttl time.Duration) error {
	for k, v := range items {
		if err := m.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (m *memCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := m.Get(ctx, key, dest); err == nil {
		return nil
	}
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, v, ttl); err != nil {
		return err
	}
	return m.Get(ctx, key, dest)
}

func (m *memCache) ZAdd(ctx context.Context, key string, members ...redis.ZMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.zset[key] == nil {
		m.zset[key] = map[string]float64{}
	}
	for _, member := range members {
		m.zset[key][member.Member] = member.Score
	}
	return nil
}

func (m *memCache) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	members := make([]redis.ZMember, 0, len(m.zset[key]))
	for id, score := range m.zset[key] {
		members = append(members, redis.ZMember{Score: score, Member: id})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member < members[j].Member
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

func (m *memCache) ZRem(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		delete(m.zset[key], member)
	}
	return nil
}

func (m *memCache) ZScore(ctx context.Context, key, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.zset[key][member]
	if !ok {
		return 0, redis.ErrCacheMiss
	}
	return score, nil
}

func (m *memCache) ZCard(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.zset[key])), nil
}

func (m *memCache) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (m *memCache) TTL(ctx context.Context, key string) (time.Duration, error)      { return 0, nil }
func (m *memCache) Ping(ctx context.Context) error                                  { return nil }

func newTestCompany(t *testing.T, id string, score float64) *company.Company {
	t.Helper()
	c, err := company.New(id, id+" Inc", "Energy")
	require.NoError(t, err)
	require.NoError(t, c.SetRating(&company.ESGRating{OverallScore: &score}))
	return c
}

func TestCompanyCache_PutThenGet(t *testing.T) {
	mem := newMemCache()
	cc := NewCompanyCache(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	original := newTestCompany(t, "ACME-01", 87.5)
	require.NoError(t, cc.Put(ctx, original))

	got, err := cc.Get(ctx, "ACME-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ACME-01", got.CompanyID)
	score, ok := got.OverallScore()
	assert.True(t, ok)
	assert.Equal(t, 87.5, score)
}

func TestCompanyCache_GetMiss(t *testing.T) {
	cc := NewCompanyCache(newMemCache(), logging.NewNopLogger(), nil)

	got, err := cc.Get(context.Background(), "GHOST")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompanyCache_GetTransportError(t *testing.T) {
	mem := newMemCache()
	mem.err = assert.AnError
	cc := NewCompanyCache(mem, logging.NewNopLogger(), nil)

	_, err := cc.Get(context.Background(), "ACME-01")
	assert.Error(t, err)
}

func TestCompanyCache_GetManyPartial(t *testing.T) {
	mem := newMemCache()
	cc := NewCompanyCache(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, cc.PutMany(ctx, []*company.Company{
		newTestCompany(t, "A", 80),
		newTestCompany(t, "C", 60),
	}))

	got, err := cc.GetMany(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "A")
	assert.NotContains(t, got, "B")
}

func TestCompanyCache_GetManyDropsCorruptEntries(t *testing.T) {
	mem := newMemCache()
	mem.kv["company:BAD"] = []byte("{not json")
	cc := NewCompanyCache(mem, logging.NewNopLogger(), nil)

	got, err := cc.GetMany(context.Background(), []string{"BAD"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompanyCache_Evict(t *testing.T) {
	mem := newMemCache()
	cc := NewCompanyCache(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, cc.Put(ctx, newTestCompany(t, "ACME-01", 50)))
	require.NoError(t, cc.Evict(ctx, "ACME-01"))

	got, err := cc.Get(ctx, "ACME-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRankingIndex_UpsertAndTopN(t *testing.T) {
	mem := newMemCache()
	idx := NewRankingIndex(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "LOW", 40.5))
	require.NoError(t, idx.Upsert(ctx, "HIGH", 92.1))
	require.NoError(t, idx.Upsert(ctx, "MID", 66.0))
	// Re-scoring replaces, not duplicates.
	require.NoError(t, idx.Upsert(ctx, "MID", 71.3))

	top, err := idx.TopN(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, RankedCompany{CompanyID: "HIGH", Score: 92.1, Rank: 1}, top[0])
	assert.Equal(t, RankedCompany{CompanyID: "MID", Score: 71.3, Rank: 2}, top[1])

	size, err := idx.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestRankingIndex_TopNLargerThanIndex(t *testing.T) {
	mem := newMemCache()
	idx := NewRankingIndex(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "ONLY", 55))

	top, err := idx.TopN(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	top, err = idx.TopN(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, top)
}

func TestRankingIndex_UpsertBatch(t *testing.T) {
	mem := newMemCache()
	idx := NewRankingIndex(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, idx.UpsertBatch(ctx, map[string]float64{"A": 10, "B": 90}))
	require.NoError(t, idx.UpsertBatch(ctx, nil))

	top, err := idx.TopN(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].CompanyID)
}

func TestRankingIndex_RemoveAndScore(t *testing.T) {
	mem := newMemCache()
	idx := NewRankingIndex(mem, logging.NewNopLogger(), nil)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "A", 75))

	score, found, err := idx.Score(ctx, "A")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 75.0, score)

	require.NoError(t, idx.Remove(ctx, "A"))

	_, found, err = idx.Score(ctx, "A")
	require.NoError(t, err)
	assert.False(t, found)
}
