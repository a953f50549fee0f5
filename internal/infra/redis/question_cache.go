package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"guesswhat-trivia-service/internal/domain"
)

// PoolLoader fetches the full question pool for a category filter from the
// backing store (Postgres in production).
type PoolLoader interface {
	LoadPool(ctx context.Context, categoryIDs []string) ([]domain.Question, error)
}

// QuestionCache caches question pools in Redis (one JSON value per category
// filter) and falls back to a loader on cache miss. Random selection happens
// in-process so repeated fetches against the same pool stay cheap.
type QuestionCache struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader PoolLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchRandom implements app.QuestionStore.
func (c *QuestionCache) FetchRandom(ctx context.Context, count int, categoryIDs []string) ([]domain.Question, error) {
	pool, err := c.pool(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	picked := make([]domain.Question, len(pool))
	copy(picked, pool)
	c.rndMu.Lock()
	c.rnd.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	c.rndMu.Unlock()
	if count < len(picked) {
		picked = picked[:count]
	}
	return picked, nil
}

func (c *QuestionCache) pool(ctx context.Context, categoryIDs []string) ([]domain.Question, error) {
	key := c.poolKey(categoryIDs)

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var pool []domain.Question
		if err := json.Unmarshal(cached, &pool); err == nil {
			return pool, nil
		}
		// Corrupt entry: fall through and rebuild.
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var pool []domain.Question
			if err := json.Unmarshal(cached, &pool); err == nil {
				return pool, nil
			}
		}

		pool, err := c.loader.LoadPool(ctx, categoryIDs)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(pool); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) poolKey(categoryIDs []string) string {
	if len(categoryIDs) == 0 {
		return "questions:pool:all"
	}
	ids := make([]string, len(categoryIDs))
	copy(ids, categoryIDs)
	sort.Strings(ids)
	return "questions:pool:" + strings.Join(ids, ",")
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	jitter := c.rnd.Int63n(jitterMax + 1)
	c.rndMu.Unlock()
	return c.ttl + time.Duration(jitter)
}
