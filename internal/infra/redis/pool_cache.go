package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-engine/internal/domain"
)

// QuestionSource matches the fetch half of the store contract.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error)
}

// PoolCache caches fetched question pools in Redis and falls back to
// the backing source on a miss. Pools are stored as JSON under
// quiz:pool:{limit}. Cache failures degrade to direct fetches, never
// to errors.
type PoolCache struct {
	client *redis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPoolCache(client *redis.Client, source QuestionSource, ttl time.Duration) *PoolCache {
	return &PoolCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PoolCache) FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: question limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}
	key := c.key(limit)

	if questions, ok := c.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.source.FetchQuestions(ctx, limit)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err == nil {
			if err := c.client.Set(ctx, key, data, c.ttlWithJitter()).Err(); err != nil {
				log.Printf("caching question pool: %v", err)
			}
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *PoolCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		log.Printf("discarding corrupt pool cache entry %s: %v", key, err)
		return nil, false
	}
	return questions, len(questions) > 0
}

// CheckHealth forwards the diagnostics probe to the backing source, so
// a cached store still reports its real condition. Sources without a
// probe report healthy by construction.
func (c *PoolCache) CheckHealth(ctx context.Context) domain.Health {
	if probe, ok := c.source.(interface {
		CheckHealth(ctx context.Context) domain.Health
	}); ok {
		return probe.CheckHealth(ctx)
	}
	return domain.Health{
		ConnectionAvailable:  true,
		CanRetrieveQuestions: true,
		Status:               domain.HealthStatusHealthy,
	}
}

func (c *PoolCache) key(limit int) string {
	return fmt.Sprintf("quiz:pool:%d", limit)
}

func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
