package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-engine-service/internal/domain"
)

// PoolLoader fetches the active question pool of a category from the backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context, categoryID int64) ([]domain.Question, error)
}

// QuestionPool caches category pools with TTL to avoid repeated DB hits.
type QuestionPool struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[int64]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionPool(loader PoolLoader, ttl time.Duration) *QuestionPool {
	return &QuestionPool{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[int64]cachedPool),
	}
}

func (p *QuestionPool) ActiveQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	if questions, ok := p.lookup(categoryID); ok {
		return questions, nil
	}

	result, err, _ := p.sf.Do(strconv.FormatInt(categoryID, 10), func() (interface{}, error) {
		if questions, ok := p.lookup(categoryID); ok {
			return questions, nil
		}

		now := p.clock()
		questions, err := p.loader.LoadPool(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if p.ttl > 0 {
			p.mu.Lock()
			p.cache[categoryID] = cachedPool{
				questions: questions,
				expiresAt: now.Add(p.ttlWithJitter()),
			}
			p.mu.Unlock()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops cached pools so the next read reloads them.
func (p *QuestionPool) Invalidate(_ context.Context, categoryIDs ...int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range categoryIDs {
		delete(p.cache, id)
	}
}

func (p *QuestionPool) lookup(categoryID int64) ([]domain.Question, bool) {
	now := p.clock()
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.cache[categoryID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (p *QuestionPool) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(p.ttl) / 10
	return p.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
