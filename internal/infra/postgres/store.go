package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
)

// Open returns a bun handle over the pgdriver connector for dsn.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements app.Store on Postgres through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{tx: tx})
	})
}

func (s *Store) QuizHeader(ctx context.Context, quizID int64) (domain.AttemptHeader, error) {
	var v attemptView
	err := attemptQuery(s.db).Where("qz.id = ?", quizID).Scan(ctx, &v)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AttemptHeader{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.AttemptHeader{}, fmt.Errorf("quiz header: %w", err)
	}
	return v.toDomain(), nil
}

func (s *Store) ResultItems(ctx context.Context, quizID int64) ([]domain.ResultItem, error) {
	var rows []resultView
	err := s.db.NewSelect().
		TableExpr("quiz_question AS qq").
		ColumnExpr("qq.question_id").
		ColumnExpr("q.description AS question").
		ColumnExpr("c.id AS choice_id").
		ColumnExpr("c.description AS choice_description").
		ColumnExpr("c.is_correct").
		ColumnExpr("qq.chosen_choice_id AS user_choice_id").
		Join("JOIN question AS q ON q.id = qq.question_id").
		Join("JOIN choice AS c ON c.question_id = qq.question_id").
		Where("qq.quiz_id = ?", quizID).
		OrderExpr("qq.question_id ASC, c.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("result items: %w", err)
	}
	items := make([]domain.ResultItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, domain.ResultItem(r))
	}
	return items, nil
}

func (s *Store) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.AttemptHeader, error) {
	q := attemptQuery(s.db)
	if filter.UserID != nil {
		q = q.Where("qz.user_id = ?", *filter.UserID)
	}
	if filter.CategoryID != nil {
		q = q.Where("qz.category_id = ?", *filter.CategoryID)
	}
	q = q.OrderExpr("qz.time_start DESC, qz.id DESC")
	q = paginate(q, filter.Page)

	var rows []attemptView
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.AttemptHeader, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Question(ctx context.Context, questionID int64) (domain.Question, error) {
	var v questionView
	err := questionQuery(s.db).Where("q.id = ?", questionID).Scan(ctx, &v)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("question: %w", err)
	}
	q := v.toDomain()
	choices, err := s.choicesFor(ctx, q.ID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Choices = choices[q.ID]
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	q := questionQuery(s.db)
	if filter.CategoryID != nil {
		q = q.Where("q.category_id = ?", *filter.CategoryID)
	}
	if filter.Query != "" {
		q = q.Where("q.description ILIKE ?", "%"+filter.Query+"%")
	}
	q = paginate(q.OrderExpr("q.id DESC"), filter.Page)

	var rows []questionView
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
		ids = append(ids, r.ID)
	}
	if !filter.IncludeChoices || len(ids) == 0 {
		return out, nil
	}

	choices, err := s.choicesFor(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Choices = choices[out[i].ID]
	}
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Category{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Store) User(ctx context.Context, userID int64) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) choicesFor(ctx context.Context, questionIDs ...int64) (map[int64][]domain.Choice, error) {
	var rows []choiceRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("question_id IN (?)", bun.In(questionIDs)).
		Order("question_id ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}
	out := make(map[int64][]domain.Choice, len(questionIDs))
	for _, r := range rows {
		out[r.QuestionID] = append(out[r.QuestionID], r.toDomain())
	}
	return out, nil
}

func attemptQuery(db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().
		TableExpr("quiz AS qz").
		ColumnExpr("qz.id AS quiz_id, qz.user_id, qz.category_id, qz.time_start, qz.time_end").
		ColumnExpr("qz.correct_rate AS score").
		ColumnExpr("cat.name AS category").
		ColumnExpr("TRIM(CONCAT(u.firstname, ' ', u.lastname)) AS user_full_name").
		ColumnExpr("u.email AS user_email").
		ColumnExpr("(SELECT COUNT(*) FROM quiz_question AS qq WHERE qq.quiz_id = qz.id) AS question_count").
		Join("JOIN category AS cat ON cat.id = qz.category_id").
		Join("JOIN users AS u ON u.id = qz.user_id")
}

func questionQuery(db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().
		TableExpr("question AS q").
		ColumnExpr("q.id, q.category_id, q.description, q.is_active").
		ColumnExpr("cat.name AS category").
		Join("JOIN category AS cat ON cat.id = q.category_id")
}

func paginate(q *bun.SelectQuery, p domain.Page) *bun.SelectQuery {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// translate maps constraint violations onto domain errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Field('C') {
	case "23503":
		return fmt.Errorf("%w: %s", domain.ErrInvalidReference, pgErr.Field('M'))
	case "23505":
		return fmt.Errorf("%w: %s", domain.ErrInvalidQuestion, pgErr.Field('M'))
	case "23514":
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Field('M'))
	}
	return err
}
