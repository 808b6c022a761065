package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"quiz-engine-service/internal/domain"
)

var validate = validator.New()

type answerRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
	ChoiceID   int64 `json:"choiceId" validate:"required,gt=0"`
}

type submitRequest struct {
	CategoryID int64           `json:"categoryId" validate:"required,gt=0"`
	Answers    []answerRequest `json:"answers" validate:"dive"`
	TimeStart  *time.Time      `json:"timeStart"`
	TimeEnd    *time.Time      `json:"timeEnd"`
}

func (req submitRequest) toDomain(userID int64) domain.Submission {
	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.Answer{QuestionID: a.QuestionID, ChoiceID: a.ChoiceID})
	}
	return domain.Submission{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Answers:    answers,
		TimeStart:  req.TimeStart,
		TimeEnd:    req.TimeEnd,
	}
}

type choiceRequest struct {
	ChoiceID    *int64 `json:"choiceId" validate:"omitempty,gt=0"`
	Description string `json:"description" validate:"required"`
	IsCorrect   bool   `json:"isCorrect"`
}

func toChoiceInputs(in []choiceRequest) []domain.ChoiceInput {
	out := make([]domain.ChoiceInput, 0, len(in))
	for _, c := range in {
		out = append(out, domain.ChoiceInput{ID: c.ChoiceID, Description: c.Description, IsCorrect: c.IsCorrect})
	}
	return out
}

type createQuestionRequest struct {
	CategoryID  int64           `json:"categoryId" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
	Choices     []choiceRequest `json:"choices" validate:"required,min=1,dive"`
}

type replaceQuestionRequest struct {
	CategoryID  int64           `json:"categoryId" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
	IsActive    *bool           `json:"isActive"`
	Choices     []choiceRequest `json:"choices" validate:"required,min=1,dive"`
}

type questionStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

type bootstrapRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Secret string `json:"secret"`
}

// decode reads a JSON body into dst and runs struct validation on it.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// queryID parses an optional positive id from the query string.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return &id, nil
}

func queryPage(r *http.Request) (domain.Page, error) {
	var p domain.Page
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.Page{}, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
		}
		*dst = n
	}
	return p, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
