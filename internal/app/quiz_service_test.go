package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-engine-service/internal/domain"
)

func answerFirst(t *testing.T, h *harness, questionID int64, correct bool) domain.Answer {
	t.Helper()
	q, err := h.store.Question(context.Background(), questionID)
	if err != nil {
		t.Fatalf("load question %d: %v", questionID, err)
	}
	for _, c := range q.Choices {
		if c.IsCorrect == correct {
			return domain.Answer{QuestionID: q.ID, ChoiceID: c.ID}
		}
	}
	t.Fatalf("question %d has no matching choice", questionID)
	return domain.Answer{}
}

func TestSubmitScoresFromStoredCorrectness(t *testing.T) {
	ctx := context.Background()
	h := newHarness(5)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	res, err := h.quiz.Submit(ctx, domain.Submission{
		UserID:     h.user.ID,
		CategoryID: h.cat.ID,
		Answers: []domain.Answer{
			answerFirst(t, h, 1, true),
			answerFirst(t, h, 2, false),
			answerFirst(t, h, 3, true),
			answerFirst(t, h, 4, false),
		},
		TimeStart: &start,
		TimeEnd:   &end,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 0.5 {
		t.Fatalf("expected score 0.5, got %v", res.Score)
	}
	if res.DurationSeconds != 90 {
		t.Fatalf("expected 90s, got %d", res.DurationSeconds)
	}

	attempts := h.store.Attempts()
	if len(attempts) != 1 || attempts[0].Score != 0.5 {
		t.Fatalf("expected stored score 0.5, got %+v", attempts)
	}
	if rows := h.store.AnsweredQuestions(res.QuizID); len(rows) != 4 {
		t.Fatalf("expected 4 answered rows, got %d", len(rows))
	}
}

func TestSubmitWithoutAnswersScoresZero(t *testing.T) {
	h := newHarness(5)
	res, err := h.quiz.Submit(context.Background(), domain.Submission{UserID: h.user.ID, CategoryID: h.cat.ID})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0, got %v", res.Score)
	}
	if !res.TimeStart.Equal(h.now) || !res.TimeEnd.Equal(h.now) || res.DurationSeconds != 0 {
		t.Fatalf("expected times defaulted to now, got %+v", res)
	}
	if n := len(h.store.Attempts()); n != 1 {
		t.Fatalf("expected attempt recorded, got %d", n)
	}
}

func TestSubmitEndDefaultsToStart(t *testing.T) {
	h := newHarness(1)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	res, err := h.quiz.Submit(context.Background(), domain.Submission{UserID: h.user.ID, CategoryID: h.cat.ID, TimeStart: &start})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.TimeEnd.Equal(start) || res.TimeEnd.Location() != time.UTC {
		t.Fatalf("expected end = start in UTC, got %v", res.TimeEnd)
	}
}

func TestSubmitRejectsInvertedWindow(t *testing.T) {
	h := newHarness(2)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(-time.Second)
	_, err := h.quiz.Submit(context.Background(), domain.Submission{
		UserID:     h.user.ID,
		CategoryID: h.cat.ID,
		Answers:    []domain.Answer{answerFirst(t, h, 1, true)},
		TimeStart:  &start,
		TimeEnd:    &end,
	})
	if !errors.Is(err, domain.ErrInvalidTimeRange) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected invalid time range, got %v", err)
	}
	if n := len(h.store.Attempts()); n != 0 {
		t.Fatalf("expected no attempt, got %d", n)
	}
}

func TestSubmitIsAllOrNothing(t *testing.T) {
	h := newHarness(2)
	_, err := h.quiz.Submit(context.Background(), domain.Submission{
		UserID:     h.user.ID,
		CategoryID: h.cat.ID,
		Answers: []domain.Answer{
			answerFirst(t, h, 1, true),
			{QuestionID: 404, ChoiceID: 1},
		},
	})
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
	if n := len(h.store.Attempts()); n != 0 {
		t.Fatalf("expected no partial attempt, got %d", n)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	h := newHarness(1)
	_, err := h.quiz.Submit(context.Background(), domain.Submission{CategoryID: h.cat.ID})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestQuestionsReuseIssuedSetUntilSubmit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(8)

	first, err := h.quiz.Questions(ctx, h.user.ID, h.cat.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	again, _ := h.quiz.Questions(ctx, h.user.ID, h.cat.ID)
	for i := range first {
		if first[i].QuestionID != again[i].QuestionID {
			t.Fatalf("expected the same set on reload")
		}
	}

	if _, err := h.quiz.Submit(ctx, domain.Submission{UserID: h.user.ID, CategoryID: h.cat.ID}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok, _ := h.issued.Get(ctx, h.user.ID, h.cat.ID); ok {
		t.Fatalf("expected issued set cleared after submit")
	}
}

func TestResultReconstructsAttempt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(3)
	res, err := h.quiz.Submit(ctx, domain.Submission{
		UserID:     h.user.ID,
		CategoryID: h.cat.ID,
		Answers:    []domain.Answer{answerFirst(t, h, 2, false), answerFirst(t, h, 1, true)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	view, err := h.quiz.Result(ctx, res.QuizID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if view.CorrectnessRate != 0.5 || view.Quiz.Category != "General" || view.Quiz.QuestionCount != 2 {
		t.Fatalf("unexpected header %+v", view)
	}
	if len(view.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(view.Items))
	}
	for i := 1; i < len(view.Items); i++ {
		prev, cur := view.Items[i-1], view.Items[i]
		if prev.QuestionID > cur.QuestionID || (prev.QuestionID == cur.QuestionID && prev.ChoiceID > cur.ChoiceID) {
			t.Fatalf("items not ordered by question then choice: %+v", view.Items)
		}
		if cur.UserChoiceID == nil {
			t.Fatalf("expected user choice on every item")
		}
	}
}

func TestResultUnknownQuiz(t *testing.T) {
	h := newHarness(1)
	if _, err := h.quiz.Result(context.Background(), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentSubmitsAreIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(4)
	right := answerFirst(t, h, 1, true)
	wrong := answerFirst(t, h, 2, false)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]float64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers := []domain.Answer{wrong}
			if i%2 == 0 {
				answers = []domain.Answer{right}
			}
			res, err := h.quiz.Submit(ctx, domain.Submission{UserID: h.user.ID, CategoryID: h.cat.ID, Answers: answers})
			results[i], errs[i] = res.Score, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		want := 0.0
		if i%2 == 0 {
			want = 1
		}
		if results[i] != want {
			t.Fatalf("worker %d scored %v, want %v", i, results[i], want)
		}
	}
	if n := len(h.store.Attempts()); n != workers {
		t.Fatalf("expected %d attempts, got %d", workers, n)
	}
}

func TestListForUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1)
	for i := 0; i < 3; i++ {
		start := h.now.Add(time.Duration(i) * time.Hour)
		if _, err := h.quiz.Submit(ctx, domain.Submission{UserID: h.user.ID, CategoryID: h.cat.ID, TimeStart: &start}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	got, err := h.quiz.ListForUser(ctx, h.user.ID, domain.Page{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || !got[0].TimeStart.After(got[1].TimeStart) {
		t.Fatalf("expected two newest attempts first, got %+v", got)
	}
}
