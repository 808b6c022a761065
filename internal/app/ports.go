package app

import (
	"context"

	"quiz-engine-service/internal/domain"
)

// Store is the persistence boundary of the engine. Every multi-step mutation
// runs inside WithinTx so a failure leaves nothing visible to readers.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	QuizHeader(ctx context.Context, quizID int64) (domain.AttemptHeader, error)
	ResultItems(ctx context.Context, quizID int64) ([]domain.ResultItem, error)
	ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.AttemptHeader, error)

	Question(ctx context.Context, questionID int64) (domain.Question, error)
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	User(ctx context.Context, userID int64) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Tx is the set of writes available inside a store transaction.
type Tx interface {
	InsertAttempt(ctx context.Context, attempt domain.QuizAttempt) (int64, error)
	InsertAnswers(ctx context.Context, quizID int64, answers []domain.Answer) error
	AttemptScore(ctx context.Context, quizID int64) (float64, error)
	SetAttemptScore(ctx context.Context, quizID int64, score float64) error

	InsertQuestion(ctx context.Context, q domain.NewQuestion) (int64, error)
	InsertChoice(ctx context.Context, questionID int64, c domain.ChoiceInput) (int64, error)
	QuestionCategory(ctx context.Context, questionID int64) (int64, error)
	UpdateQuestion(ctx context.Context, r domain.QuestionReplacement) error
	ClearCorrect(ctx context.Context, questionID int64) error
	UpdateChoice(ctx context.Context, questionID int64, c domain.ChoiceInput) error
	SetQuestionActive(ctx context.Context, questionID int64, active bool) (domain.QuestionStatus, error)

	SetUserActive(ctx context.Context, userID int64, active bool) (domain.UserStatus, error)
}

// QuestionPool serves the active, usable questions of a category (choices
// and correctness included). Implementations may cache; Invalidate is best
// effort.
type QuestionPool interface {
	ActiveQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error)
	Invalidate(ctx context.Context, categoryIDs ...int64)
}

// IssuedSets remembers the question set handed to a user so a reload does not
// re-sample.
type IssuedSets interface {
	Get(ctx context.Context, userID, categoryID int64) (domain.IssuedSet, bool, error)
	Put(ctx context.Context, set domain.IssuedSet) error
	Delete(ctx context.Context, userID, categoryID int64) error
}
