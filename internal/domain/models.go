package domain

import "time"

// Category groups questions and quiz attempts.
type Category struct {
	ID   int64  `json:"categoryId"`
	Name string `json:"name"`
}

// Choice is a possible answer for a question.
type Choice struct {
	ID          int64  `json:"choiceId"`
	QuestionID  int64  `json:"questionId"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"isCorrect"`
}

// Question is a multiple-choice question. Every question with at least one
// choice has exactly one correct choice.
type Question struct {
	ID          int64    `json:"questionId"`
	CategoryID  int64    `json:"categoryId"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description"`
	IsActive    bool     `json:"isActive"`
	Choices     []Choice `json:"choices,omitempty"`
}

// QuestionStatus is the row returned after toggling a question's active flag.
type QuestionStatus struct {
	QuestionID int64 `json:"questionId"`
	IsActive   bool  `json:"isActive"`
}

// SampledOption is a choice as presented to a quiz taker. It never carries
// correctness.
type SampledOption struct {
	ChoiceID    int64  `json:"choiceId"`
	Description string `json:"description"`
}

// SampledQuestion is a question as presented to a quiz taker.
type SampledQuestion struct {
	QuestionID  int64           `json:"questionId"`
	Description string          `json:"description"`
	Options     []SampledOption `json:"options"`
}

// IssuedSet is the question set handed to a user for a category. Reloading
// the quiz returns the same set until it is submitted or expires.
type IssuedSet struct {
	UserID     int64             `json:"userId"`
	CategoryID int64             `json:"categoryId"`
	Questions  []SampledQuestion `json:"questions"`
	IssuedAt   time.Time         `json:"issuedAt"`
}

// Answer is a single (question, choice) pair submitted by a user.
type Answer struct {
	QuestionID int64 `json:"questionId"`
	ChoiceID   int64 `json:"choiceId"`
}

// QuizAttempt is one user taking a quiz for a category.
type QuizAttempt struct {
	ID         int64     `json:"quizId"`
	UserID     int64     `json:"userId"`
	CategoryID int64     `json:"categoryId"`
	TimeStart  time.Time `json:"timeStart"`
	TimeEnd    time.Time `json:"timeEnd"`
	Score      float64   `json:"score"`
}

// AnsweredQuestion is one recorded answer of an attempt. ChosenChoiceID is nil
// when the chosen choice was deleted after the fact.
type AnsweredQuestion struct {
	ID             int64  `json:"id"`
	QuizID         int64  `json:"quizId"`
	QuestionID     int64  `json:"questionId"`
	ChosenChoiceID *int64 `json:"chosenChoiceId"`
}

// Submission is the input of the scoring engine.
type Submission struct {
	UserID     int64
	CategoryID int64
	Answers    []Answer
	TimeStart  *time.Time
	TimeEnd    *time.Time
}

// SubmissionResult is returned after an attempt has been recorded and scored.
type SubmissionResult struct {
	QuizID          int64     `json:"quizId"`
	Score           float64   `json:"score"`
	TimeStart       time.Time `json:"timeStart"`
	TimeEnd         time.Time `json:"timeEnd"`
	DurationSeconds int64     `json:"durationSec"`
}

// AttemptHeader summarizes an attempt for listings and result views.
type AttemptHeader struct {
	QuizID        int64     `json:"quizId"`
	UserID        int64     `json:"userId"`
	UserFullName  string    `json:"userFullName,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty"`
	CategoryID    int64     `json:"categoryId"`
	Category      string    `json:"category"`
	TimeStart     time.Time `json:"timeStart"`
	TimeEnd       time.Time `json:"timeEnd"`
	Score         float64   `json:"score"`
	QuestionCount int       `json:"questionCount"`
}

// ResultItem is one (question, choice) tuple of a finished attempt.
type ResultItem struct {
	QuestionID        int64  `json:"questionId"`
	Question          string `json:"question"`
	ChoiceID          int64  `json:"choiceId"`
	ChoiceDescription string `json:"optionDesc"`
	IsCorrect         bool   `json:"isCorrect"`
	UserChoiceID      *int64 `json:"userChoiceId"`
}

// ResultView is a full review of an attempt.
type ResultView struct {
	Quiz            AttemptHeader `json:"quiz"`
	Items           []ResultItem  `json:"items"`
	CorrectnessRate float64       `json:"correctnessRate"`
}

// ChoiceInput describes a choice in an admin write. ID is nil for new choices.
type ChoiceInput struct {
	ID          *int64
	Description string
	IsCorrect   bool
}

// NewQuestion is the input of an admin create.
type NewQuestion struct {
	CategoryID  int64
	Description string
	Choices     []ChoiceInput
}

// QuestionReplacement is the input of an admin replace.
type QuestionReplacement struct {
	QuestionID  int64
	CategoryID  int64
	Description string
	IsActive    bool
	Choices     []ChoiceInput
}

// User is an account known to the engine. Credentials are handled by the
// identity service.
type User struct {
	ID        int64  `json:"userId"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	IsActive  bool   `json:"isActive"`
	IsAdmin   bool   `json:"isAdmin"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.Firstname == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// UserStatus is the row returned after changing a user's status.
type UserStatus struct {
	UserID   int64 `json:"userId"`
	IsActive bool  `json:"isActive"`
}

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// QuestionFilter narrows admin question listings.
type QuestionFilter struct {
	CategoryID     *int64
	Query          string
	IncludeChoices bool
	Page
}

// AttemptFilter narrows attempt listings.
type AttemptFilter struct {
	CategoryID *int64
	UserID     *int64
	Page
}
