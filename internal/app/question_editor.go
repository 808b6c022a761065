package app

import (
	"context"
	"fmt"

	"quiz-engine-service/internal/domain"
)

const (
	defaultQuestionPage = 100
	maxQuestionPage     = 500
)

// QuestionEditor performs admin writes on questions and choices while
// keeping exactly one correct choice per question.
type QuestionEditor struct {
	store Store
	pool  QuestionPool
}

func NewQuestionEditor(store Store, pool QuestionPool) *QuestionEditor {
	return &QuestionEditor{store: store, pool: pool}
}

// Create inserts a question and its full choice set.
func (e *QuestionEditor) Create(ctx context.Context, in domain.NewQuestion) (int64, error) {
	if err := validateChoices(in.Choices); err != nil {
		return 0, err
	}

	var questionID int64
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		id, err := tx.InsertQuestion(ctx, in)
		if err != nil {
			return err
		}
		for _, c := range in.Choices {
			c.ID = nil
			if _, err := tx.InsertChoice(ctx, id, c); err != nil {
				return err
			}
		}
		questionID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.invalidate(ctx, in.CategoryID)
	return questionID, nil
}

// Replace updates the question row, then clears every correct flag and
// upserts the provided choices: entries without an id are inserted, entries
// with an id are updated in place. Stored choices missing from the payload
// are kept.
func (e *QuestionEditor) Replace(ctx context.Context, in domain.QuestionReplacement) error {
	if err := validateChoices(in.Choices); err != nil {
		return err
	}

	var previousCategory int64
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		cat, err := tx.QuestionCategory(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		previousCategory = cat

		if err := tx.UpdateQuestion(ctx, in); err != nil {
			return err
		}
		if err := tx.ClearCorrect(ctx, in.QuestionID); err != nil {
			return err
		}
		for _, c := range in.Choices {
			if c.ID == nil {
				if _, err := tx.InsertChoice(ctx, in.QuestionID, c); err != nil {
					return err
				}
				continue
			}
			if err := tx.UpdateChoice(ctx, in.QuestionID, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.invalidate(ctx, previousCategory, in.CategoryID)
	return nil
}

// SetActive toggles sampling eligibility without touching choices.
func (e *QuestionEditor) SetActive(ctx context.Context, questionID int64, active bool) (domain.QuestionStatus, error) {
	var (
		status   domain.QuestionStatus
		category int64
	)
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		cat, err := tx.QuestionCategory(ctx, questionID)
		if err != nil {
			return err
		}
		category = cat
		status, err = tx.SetQuestionActive(ctx, questionID, active)
		return err
	})
	if err != nil {
		return domain.QuestionStatus{}, err
	}
	e.invalidate(ctx, category)
	return status, nil
}

// Get returns a question with all of its choices.
func (e *QuestionEditor) Get(ctx context.Context, questionID int64) (domain.Question, error) {
	return e.store.Question(ctx, questionID)
}

// List returns questions for the admin listing, newest first.
func (e *QuestionEditor) List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	filter.Page = clampPage(filter.Page, defaultQuestionPage, maxQuestionPage)
	return e.store.ListQuestions(ctx, filter)
}

func (e *QuestionEditor) invalidate(ctx context.Context, categoryIDs ...int64) {
	if e.pool != nil {
		e.pool.Invalidate(ctx, categoryIDs...)
	}
}

// validateChoices enforces the single-correct rule on a payload before any
// write happens.
func validateChoices(choices []domain.ChoiceInput) error {
	if len(choices) == 0 {
		return fmt.Errorf("%w: choices must not be empty", domain.ErrInvalidQuestion)
	}
	correct := 0
	seen := make(map[int64]struct{}, len(choices))
	for _, c := range choices {
		if c.IsCorrect {
			correct++
		}
		if c.ID == nil {
			continue
		}
		if _, dup := seen[*c.ID]; dup {
			return fmt.Errorf("%w: choice %d listed twice", domain.ErrInvalidQuestion, *c.ID)
		}
		seen[*c.ID] = struct{}{}
	}
	if correct != 1 {
		return fmt.Errorf("%w: exactly one choice must be correct", domain.ErrInvalidQuestion)
	}
	return nil
}

func clampPage(p domain.Page, def, max int) domain.Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
