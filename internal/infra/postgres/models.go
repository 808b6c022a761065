package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-engine-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Email     string `bun:"email,notnull"`
	Firstname string `bun:"firstname,notnull"`
	Lastname  string `bun:"lastname,notnull"`
	IsActive  bool   `bun:"is_active,notnull"`
	IsAdmin   bool   `bun:"is_admin,notnull"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Firstname: r.Firstname,
		Lastname:  r.Lastname,
		IsActive:  r.IsActive,
		IsAdmin:   r.IsAdmin,
	}
}

type categoryRow struct {
	bun.BaseModel `bun:"table:category,alias:cat"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:question,alias:q"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CategoryID  int64  `bun:"category_id,notnull"`
	Description string `bun:"description,notnull"`
	IsActive    bool   `bun:"is_active,notnull"`
}

type choiceRow struct {
	bun.BaseModel `bun:"table:choice,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	QuestionID  int64  `bun:"question_id,notnull"`
	Description string `bun:"description,notnull"`
	IsCorrect   bool   `bun:"is_correct,notnull"`
}

func (r choiceRow) toDomain() domain.Choice {
	return domain.Choice{
		ID:          r.ID,
		QuestionID:  r.QuestionID,
		Description: r.Description,
		IsCorrect:   r.IsCorrect,
	}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quiz,alias:qz"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	CategoryID  int64     `bun:"category_id,notnull"`
	TimeStart   time.Time `bun:"time_start,notnull"`
	TimeEnd     time.Time `bun:"time_end,notnull"`
	CorrectRate float64   `bun:"correct_rate,notnull"`
}

type quizQuestionRow struct {
	bun.BaseModel `bun:"table:quiz_question,alias:qq"`

	ID             int64  `bun:"id,pk,autoincrement"`
	QuizID         int64  `bun:"quiz_id,notnull"`
	QuestionID     int64  `bun:"question_id,notnull"`
	ChosenChoiceID *int64 `bun:"chosen_choice_id"`
}

// Read projections.

type questionView struct {
	ID          int64  `bun:"id"`
	CategoryID  int64  `bun:"category_id"`
	Category    string `bun:"category"`
	Description string `bun:"description"`
	IsActive    bool   `bun:"is_active"`
}

func (v questionView) toDomain() domain.Question {
	return domain.Question{
		ID:          v.ID,
		CategoryID:  v.CategoryID,
		Category:    v.Category,
		Description: v.Description,
		IsActive:    v.IsActive,
	}
}

type attemptView struct {
	QuizID        int64     `bun:"quiz_id"`
	UserID        int64     `bun:"user_id"`
	UserFullName  string    `bun:"user_full_name"`
	UserEmail     string    `bun:"user_email"`
	CategoryID    int64     `bun:"category_id"`
	Category      string    `bun:"category"`
	TimeStart     time.Time `bun:"time_start"`
	TimeEnd       time.Time `bun:"time_end"`
	Score         float64   `bun:"score"`
	QuestionCount int       `bun:"question_count"`
}

func (v attemptView) toDomain() domain.AttemptHeader {
	return domain.AttemptHeader{
		QuizID:        v.QuizID,
		UserID:        v.UserID,
		UserFullName:  v.UserFullName,
		UserEmail:     v.UserEmail,
		CategoryID:    v.CategoryID,
		Category:      v.Category,
		TimeStart:     v.TimeStart.UTC(),
		TimeEnd:       v.TimeEnd.UTC(),
		Score:         v.Score,
		QuestionCount: v.QuestionCount,
	}
}

type resultView struct {
	QuestionID        int64  `bun:"question_id"`
	Question          string `bun:"question"`
	ChoiceID          int64  `bun:"choice_id"`
	ChoiceDescription string `bun:"choice_description"`
	IsCorrect         bool   `bun:"is_correct"`
	UserChoiceID      *int64 `bun:"user_choice_id"`
}
