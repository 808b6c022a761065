package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"quiz-engine-service/internal/domain"
)

// PoolLoader fetches the active question pool of a category from the backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context, categoryID int64) ([]domain.Question, error)
}

// QuestionPool caches category pools in Redis and falls back to a loader on
// cache miss. Each pool is stored as JSON under quiz:pool:{categoryID}.
type QuestionPool struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
	log    logrus.FieldLogger
}

func NewQuestionPool(client *redis.Client, loader PoolLoader, ttl time.Duration, log logrus.FieldLogger) *QuestionPool {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuestionPool{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
	}
}

func (p *QuestionPool) ActiveQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	key := poolKey(categoryID)
	if questions, ok := p.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := p.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := p.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := p.loader.LoadPool(ctx, categoryID)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		if err := p.client.Set(ctx, key, payload, p.ttlWithJitter()).Err(); err != nil {
			p.log.WithError(err).WithField("category_id", categoryID).Warn("failed to cache question pool")
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate deletes the cached pools. Failures are logged; entries expire anyway.
func (p *QuestionPool) Invalidate(ctx context.Context, categoryIDs ...int64) {
	if len(categoryIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		keys = append(keys, poolKey(id))
	}
	if err := p.client.Del(ctx, keys...).Err(); err != nil {
		p.log.WithError(err).WithField("keys", keys).Warn("failed to invalidate question pool")
	}
}

func (p *QuestionPool) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.WithError(err).WithField("key", key).Warn("question pool cache read failed")
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		p.log.WithError(err).WithField("key", key).Warn("discarding corrupt question pool entry")
		return nil, false
	}
	return questions, true
}

func poolKey(categoryID int64) string {
	return "quiz:pool:" + strconv.FormatInt(categoryID, 10)
}

func (p *QuestionPool) ttlWithJitter() time.Duration {
	if p.ttl <= 0 {
		return 0
	}
	jitterMax := int64(p.ttl) / 10
	return p.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
