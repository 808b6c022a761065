package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/domain"
)

// QuizService contains the quiz-taking use cases: issuing questions,
// submitting and scoring attempts, and reading results back.
type QuizService struct {
	store   Store
	sampler *Sampler
	issued  IssuedSets
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewQuizService wires the quiz use cases. issued may be nil, in which case
// every request re-samples.
func NewQuizService(store Store, sampler *Sampler, issued IssuedSets, log logrus.FieldLogger) *QuizService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuizService{
		store:   store,
		sampler: sampler,
		issued:  issued,
		log:     log,
		now:     time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(store Store, sampler *Sampler, issued IssuedSets, now func() time.Time) *QuizService {
	s := NewQuizService(store, sampler, issued, nil)
	s.now = now
	return s
}

// Categories lists every category.
func (s *QuizService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// Questions returns the question set for a user and category. A set already
// issued to the user is returned unchanged; otherwise a fresh sample is drawn
// and remembered.
func (s *QuizService) Questions(ctx context.Context, userID, categoryID int64) ([]domain.SampledQuestion, error) {
	logger := s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": categoryID})

	if s.issued != nil {
		set, ok, err := s.issued.Get(ctx, userID, categoryID)
		if err != nil {
			logger.WithError(err).Warn("issued set lookup failed, sampling fresh")
		} else if ok {
			return set.Questions, nil
		}
	}

	questions, err := s.sampler.Sample(ctx, categoryID, 0)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 || s.issued == nil {
		return questions, nil
	}

	set := domain.IssuedSet{
		UserID:     userID,
		CategoryID: categoryID,
		Questions:  questions,
		IssuedAt:   s.now().UTC(),
	}
	if err := s.issued.Put(ctx, set); err != nil {
		logger.WithError(err).Warn("failed to remember issued set")
	}
	return questions, nil
}

// Submit records an attempt with its answers and scores it from stored
// correctness flags, all in one transaction.
//
// The submitted question ids are not checked against the category or the
// issued set; they are scored against whatever is stored.
func (s *QuizService) Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	if sub.UserID <= 0 {
		return domain.SubmissionResult{}, domain.ErrUnauthenticated
	}
	start, end, err := resolveWindow(sub.TimeStart, sub.TimeEnd, s.now)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	var result domain.SubmissionResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quizID, err := startAttempt(ctx, tx, sub.UserID, sub.CategoryID, sub.Answers, start, end)
		if err != nil {
			return err
		}
		score, err := tx.AttemptScore(ctx, quizID)
		if err != nil {
			return err
		}
		if err := tx.SetAttemptScore(ctx, quizID, score); err != nil {
			return err
		}
		result = domain.SubmissionResult{
			QuizID:          quizID,
			Score:           score,
			TimeStart:       start,
			TimeEnd:         end,
			DurationSeconds: int64(end.Sub(start) / time.Second),
		}
		return nil
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	if s.issued != nil {
		if err := s.issued.Delete(ctx, sub.UserID, sub.CategoryID); err != nil {
			s.log.WithError(err).WithField("quiz_id", result.QuizID).Warn("failed to clear issued set")
		}
	}
	return result, nil
}

// Result reconstructs a finished attempt for review.
func (s *QuizService) Result(ctx context.Context, quizID int64) (domain.ResultView, error) {
	header, err := s.store.QuizHeader(ctx, quizID)
	if err != nil {
		return domain.ResultView{}, err
	}
	items, err := s.store.ResultItems(ctx, quizID)
	if err != nil {
		return domain.ResultView{}, err
	}
	if items == nil {
		items = []domain.ResultItem{}
	}
	return domain.ResultView{
		Quiz:            header,
		Items:           items,
		CorrectnessRate: header.Score,
	}, nil
}

// ListForUser returns the user's attempts, newest first.
func (s *QuizService) ListForUser(ctx context.Context, userID int64, page domain.Page) ([]domain.AttemptHeader, error) {
	return s.store.ListAttempts(ctx, domain.AttemptFilter{UserID: &userID, Page: page})
}
