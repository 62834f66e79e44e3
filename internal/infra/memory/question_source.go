package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-engine/internal/domain"
)

// Source is an in-process question source, useful for demos and tests
// when no database is configured.
type Source struct {
	questions []domain.Question
	rnd       *rand.Rand
	mu        sync.Mutex
}

func NewSource(questions []domain.Question) *Source {
	return &Source{
		questions: questions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions mimics the store contract: randomized order, limit
// bounded, ErrNoQuestions when empty.
func (s *Source) FetchQuestions(_ context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: question limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}
	if len(s.questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	shuffled := make([]domain.Question, len(s.questions))
	copy(shuffled, s.questions)
	s.mu.Lock()
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	if limit > len(shuffled) {
		limit = len(shuffled)
	}
	return shuffled[:limit], nil
}

// PoolCache caches fetched pools with a TTL to avoid repeated store
// hits when quizzes restart frequently. Concurrent misses for the same
// limit collapse into one upstream fetch.
type PoolCache struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedPool
}

// QuestionSource matches the fetch half of the store contract.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error)
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewPoolCache(source QuestionSource, ttl time.Duration) *PoolCache {
	return &PoolCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedPool),
	}
}

func (c *PoolCache) FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: question limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[limit]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(fmt.Sprintf("pool:%d", limit), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[limit]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.source.FetchQuestions(ctx, limit)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[limit] = cachedPool{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
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

func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
