package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-engine-service/internal/domain"
)

type storeTx struct {
	tx bun.Tx
}

func (t *storeTx) InsertAttempt(ctx context.Context, a domain.QuizAttempt) (int64, error) {
	row := &quizRow{
		UserID:      a.UserID,
		CategoryID:  a.CategoryID,
		TimeStart:   a.TimeStart.UTC(),
		TimeEnd:     a.TimeEnd.UTC(),
		CorrectRate: 0,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert attempt: %w", translate(err))
	}
	return row.ID, nil
}

func (t *storeTx) InsertAnswers(ctx context.Context, quizID int64, answers []domain.Answer) error {
	rows := make([]quizQuestionRow, 0, len(answers))
	for _, a := range answers {
		choiceID := a.ChoiceID
		rows = append(rows, quizQuestionRow{
			QuizID:         quizID,
			QuestionID:     a.QuestionID,
			ChosenChoiceID: &choiceID,
		})
	}
	if _, err := t.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert answers: %w", translate(err))
	}
	return nil
}

// AttemptScore is the fraction of answered rows whose chosen choice is
// correct. Rows with a deleted choice count as wrong.
func (t *storeTx) AttemptScore(ctx context.Context, quizID int64) (float64, error) {
	var score float64
	err := t.tx.NewSelect().
		TableExpr("quiz_question AS qq").
		ColumnExpr("COALESCE(AVG(CASE WHEN c.is_correct THEN 1.0 ELSE 0.0 END), 0)::float8").
		Join("LEFT JOIN choice AS c ON c.id = qq.chosen_choice_id").
		Where("qq.quiz_id = ?", quizID).
		Scan(ctx, &score)
	if err != nil {
		return 0, fmt.Errorf("score attempt: %w", err)
	}
	return score, nil
}

func (t *storeTx) SetAttemptScore(ctx context.Context, quizID int64, score float64) error {
	res, err := t.tx.NewUpdate().
		Model((*quizRow)(nil)).
		Set("correct_rate = ?", score).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set score: %w", translate(err))
	}
	return expectRow(res, domain.ErrQuizNotFound)
}

func (t *storeTx) InsertQuestion(ctx context.Context, q domain.NewQuestion) (int64, error) {
	row := &questionRow{
		CategoryID:  q.CategoryID,
		Description: q.Description,
		IsActive:    true,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert question: %w", translate(err))
	}
	return row.ID, nil
}

func (t *storeTx) InsertChoice(ctx context.Context, questionID int64, c domain.ChoiceInput) (int64, error) {
	row := &choiceRow{
		QuestionID:  questionID,
		Description: c.Description,
		IsCorrect:   c.IsCorrect,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert choice: %w", translate(err))
	}
	return row.ID, nil
}

// QuestionCategory locks the question row for the rest of the transaction.
func (t *storeTx) QuestionCategory(ctx context.Context, questionID int64) (int64, error) {
	var categoryID int64
	err := t.tx.NewSelect().
		Model((*questionRow)(nil)).
		Column("category_id").
		Where("id = ?", questionID).
		For("UPDATE").
		Scan(ctx, &categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrQuestionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock question: %w", err)
	}
	return categoryID, nil
}

func (t *storeTx) UpdateQuestion(ctx context.Context, r domain.QuestionReplacement) error {
	res, err := t.tx.NewUpdate().
		Model((*questionRow)(nil)).
		Set("category_id = ?", r.CategoryID).
		Set("description = ?", r.Description).
		Set("is_active = ?", r.IsActive).
		Where("id = ?", r.QuestionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", translate(err))
	}
	return expectRow(res, domain.ErrQuestionNotFound)
}

func (t *storeTx) ClearCorrect(ctx context.Context, questionID int64) error {
	_, err := t.tx.NewUpdate().
		Model((*choiceRow)(nil)).
		Set("is_correct = FALSE").
		Where("question_id = ?", questionID).
		Where("is_correct").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear correct: %w", err)
	}
	return nil
}

func (t *storeTx) UpdateChoice(ctx context.Context, questionID int64, c domain.ChoiceInput) error {
	if c.ID == nil {
		return domain.ErrChoiceNotFound
	}
	res, err := t.tx.NewUpdate().
		Model((*choiceRow)(nil)).
		Set("description = ?", c.Description).
		Set("is_correct = ?", c.IsCorrect).
		Where("id = ?", *c.ID).
		Where("question_id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update choice: %w", translate(err))
	}
	return expectRow(res, domain.ErrChoiceNotFound)
}

func (t *storeTx) SetQuestionActive(ctx context.Context, questionID int64, active bool) (domain.QuestionStatus, error) {
	res, err := t.tx.NewUpdate().
		Model((*questionRow)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return domain.QuestionStatus{}, fmt.Errorf("set question status: %w", err)
	}
	if err := expectRow(res, domain.ErrQuestionNotFound); err != nil {
		return domain.QuestionStatus{}, err
	}
	return domain.QuestionStatus{QuestionID: questionID, IsActive: active}, nil
}

func (t *storeTx) SetUserActive(ctx context.Context, userID int64, active bool) (domain.UserStatus, error) {
	res, err := t.tx.NewUpdate().
		Model((*userRow)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return domain.UserStatus{}, fmt.Errorf("set user status: %w", err)
	}
	if err := expectRow(res, domain.ErrUserNotFound); err != nil {
		return domain.UserStatus{}, err
	}
	return domain.UserStatus{UserID: userID, IsActive: active}, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
