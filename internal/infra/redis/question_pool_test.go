package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/infra/memory"
)

func TestQuestionPoolCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store, cat := seededStore()
	loader := &countingLoader{PoolLoader: store}
	pool := NewQuestionPool(newClient(mr), loader, time.Minute, nil)

	questions, err := pool.ActiveQuestions(context.Background(), cat.ID)
	if err != nil {
		t.Fatalf("active questions: %v", err)
	}
	if len(questions) != 1 || len(questions[0].Choices) != 2 {
		t.Fatalf("unexpected pool %+v", questions)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("quiz:pool:1") {
		t.Fatalf("expected pool key to be set")
	}
	if ttl := mr.TTL("quiz:pool:1"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := pool.ActiveQuestions(context.Background(), cat.ID)
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if !cached[0].Choices[0].IsCorrect {
		t.Fatalf("expected correctness to survive the cache round trip")
	}
}

func TestQuestionPoolInvalidateDeletesKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store, cat := seededStore()
	loader := &countingLoader{PoolLoader: store}
	pool := NewQuestionPool(newClient(mr), loader, time.Minute, nil)

	_, _ = pool.ActiveQuestions(context.Background(), cat.ID)
	pool.Invalidate(context.Background(), cat.ID)
	if mr.Exists("quiz:pool:1") {
		t.Fatalf("expected pool key removed")
	}
	_, _ = pool.ActiveQuestions(context.Background(), cat.ID)
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

type countingLoader struct {
	PoolLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadPool(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.PoolLoader.LoadPool(ctx, categoryID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func seededStore() (*memory.Store, domain.Category) {
	store := memory.NewStore()
	cat := store.AddCategory("Math")
	store.AddQuestion(cat.ID, "What is 2 + 2?", true,
		domain.Choice{Description: "4", IsCorrect: true},
		domain.Choice{Description: "3"},
	)
	return store, cat
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
