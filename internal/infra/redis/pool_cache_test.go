package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type countingSource struct {
	QuestionSource
	calls int
}

func (s *countingSource) FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.FetchQuestions(ctx, limit)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            1,
			Text:          "What is 2 + 2?",
			Options:       []string{"4", "3", "5", "22"},
			CorrectAnswer: "4",
		},
		{
			ID:            2,
			Text:          "Largest planet in the solar system?",
			Options:       []string{"Jupiter", "Saturn", "Earth", "Mars"},
			CorrectAnswer: "Jupiter",
		},
	}
}

func TestPoolCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	upstream := &countingSource{QuestionSource: memory.NewSource(sampleQuestions())}
	cache := NewPoolCache(newClient(mr), upstream, time.Minute)

	questions, err := cache.FetchQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if upstream.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", upstream.calls)
	}

	// Second call should hit Redis, loader not incremented.
	cached, err := cache.FetchQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if upstream.calls != 1 {
		t.Fatalf("expected cache hit, upstream calls=%d", upstream.calls)
	}
	for _, q := range cached {
		if q.CorrectAnswer == "" {
			t.Fatalf("cached question lost its correct answer: %+v", q)
		}
	}
}

func TestPoolCacheExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	upstream := &countingSource{QuestionSource: memory.NewSource(sampleQuestions())}
	cache := NewPoolCache(newClient(mr), upstream, time.Minute)

	if _, err := cache.FetchQuestions(context.Background(), 2); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.FetchQuestions(context.Background(), 2); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("expected expired key refetched, got %d calls", upstream.calls)
	}
}

func TestPoolCachePropagatesSourceErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewPoolCache(newClient(mr), memory.NewSource(nil), time.Minute)
	if _, err := cache.FetchQuestions(context.Background(), 2); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

type probedSource struct {
	QuestionSource
	health domain.Health
}

func (s *probedSource) CheckHealth(context.Context) domain.Health {
	return s.health
}

func TestPoolCacheForwardsHealthProbe(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	unhealthy := domain.Health{
		Status:    domain.HealthStatusConnectionFailed,
		LastError: "dial refused",
	}
	upstream := &probedSource{QuestionSource: memory.NewSource(nil), health: unhealthy}
	cache := NewPoolCache(newClient(mr), upstream, time.Minute)
	if got := cache.CheckHealth(context.Background()); got.Status != domain.HealthStatusConnectionFailed {
		t.Fatalf("expected the backing probe forwarded, got %+v", got)
	}

	plain := NewPoolCache(newClient(mr), memory.NewSource(sampleQuestions()), time.Minute)
	if got := plain.CheckHealth(context.Background()); !got.Healthy() {
		t.Fatalf("expected healthy without a backing probe, got %+v", got)
	}
}

func TestPoolCacheSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close() // cache backend is gone, fetches must still work

	upstream := &countingSource{QuestionSource: memory.NewSource(sampleQuestions())}
	cache := NewPoolCache(client, upstream, time.Minute)

	questions, err := cache.FetchQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch during outage: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}
