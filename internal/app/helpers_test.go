package app_test

import (
	"fmt"
	"time"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/infra/memory"
)

type harness struct {
	store  *memory.Store
	pool   *memory.QuestionPool
	issued *memory.IssuedSets
	quiz   *app.QuizService
	editor *app.QuestionEditor
	admin  *app.AdminService
	cat    domain.Category
	user   domain.User
	now    time.Time
}

// newHarness seeds one category with n active questions, each with three
// choices of which the first is correct.
func newHarness(n int) *harness {
	store := memory.NewStore()
	cat := store.AddCategory("General")
	for i := 1; i <= n; i++ {
		store.AddQuestion(cat.ID, fmt.Sprintf("Question %d", i), true,
			domain.Choice{Description: "right", IsCorrect: true},
			domain.Choice{Description: "wrong"},
			domain.Choice{Description: "also wrong"},
		)
	}
	user := store.AddUser(domain.User{Email: "player@example.com", Firstname: "Pat", IsActive: true})

	h := &harness{
		store:  store,
		pool:   memory.NewQuestionPool(store, time.Minute),
		issued: memory.NewIssuedSets(time.Hour),
		cat:    cat,
		user:   user,
		now:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	sampler := app.NewSampler(h.pool, app.DefaultSampleSize)
	h.quiz = app.NewQuizServiceWithClock(store, sampler, h.issued, func() time.Time { return h.now })
	h.editor = app.NewQuestionEditor(store, h.pool)
	h.admin = app.NewAdminService(store)
	return h
}

func ptr[T any](v T) *T {
	return &v
}
