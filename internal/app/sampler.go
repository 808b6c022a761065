package app

import (
	"context"
	"math/rand"

	"quiz-engine-service/internal/domain"
)

// DefaultSampleSize is the number of questions drawn per quiz.
const DefaultSampleSize = 5

// Sampler draws bounded random question sets from a category's active pool.
type Sampler struct {
	pool    QuestionPool
	size    int
	shuffle func(n int, swap func(i, j int))
}

func NewSampler(pool QuestionPool, size int) *Sampler {
	if size <= 0 {
		size = DefaultSampleSize
	}
	return &Sampler{pool: pool, size: size, shuffle: rand.Shuffle}
}

// NewSamplerWithShuffle is test-only for deterministic ordering.
func NewSamplerWithShuffle(pool QuestionPool, size int, shuffle func(n int, swap func(i, j int))) *Sampler {
	s := NewSampler(pool, size)
	s.shuffle = shuffle
	return s
}

// Size reports the default number of questions per sample.
func (s *Sampler) Size() int {
	return s.size
}

// Sample returns up to n distinct questions of the category, uniformly drawn,
// each with its full choice set in random order. n <= 0 uses the configured
// size. An empty category yields an empty slice.
func (s *Sampler) Sample(ctx context.Context, categoryID int64, n int) ([]domain.SampledQuestion, error) {
	if n <= 0 {
		n = s.size
	}

	pool, err := s.pool.ActiveQuestions(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	eligible := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if q.IsActive && q.CategoryID == categoryID && len(q.Choices) > 0 {
			eligible = append(eligible, q)
		}
	}

	// Shuffling the whole pool and taking a prefix gives a uniform draw
	// without replacement.
	s.shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if len(eligible) > n {
		eligible = eligible[:n]
	}

	out := make([]domain.SampledQuestion, 0, len(eligible))
	for _, q := range eligible {
		out = append(out, s.present(q))
	}
	return out, nil
}

func (s *Sampler) present(q domain.Question) domain.SampledQuestion {
	options := make([]domain.SampledOption, len(q.Choices))
	for i, c := range q.Choices {
		options[i] = domain.SampledOption{ChoiceID: c.ID, Description: c.Description}
	}
	s.shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return domain.SampledQuestion{
		QuestionID:  q.ID,
		Description: q.Description,
		Options:     options,
	}
}
