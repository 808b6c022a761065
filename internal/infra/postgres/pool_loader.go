package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-engine-service/internal/domain"
)

const loadPoolSQL = `
SELECT q.id, q.category_id, q.description, c.id, c.description, c.is_correct
FROM question q
JOIN choice c ON c.question_id = q.id
WHERE q.category_id = $1 AND q.is_active
ORDER BY q.id, c.id`

// PoolLoader reads the active question pool of a category straight off a
// pgx pool. It sits on the hot path of quiz start and skips the ORM.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPool(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, loadPoolSQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q domain.Question
			c domain.Choice
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Description, &c.ID, &c.Description, &c.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		c.QuestionID = q.ID
		if n := len(questions); n > 0 && questions[n-1].ID == q.ID {
			questions[n-1].Choices = append(questions[n-1].Choices, c)
			continue
		}
		q.IsActive = true
		q.Choices = []domain.Choice{c}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	return questions, nil
}
