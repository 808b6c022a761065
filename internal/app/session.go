package app

import (
	"context"
	"time"

	"quiz-engine-service/internal/domain"
)

// resolveWindow fills in missing attempt times. A missing start is now, a
// missing end equals the start.
func resolveWindow(start, end *time.Time, now func() time.Time) (time.Time, time.Time, error) {
	var s, e time.Time
	if start != nil {
		s = start.UTC()
	} else {
		s = now().UTC()
	}
	if end != nil {
		e = end.UTC()
	} else {
		e = s
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, domain.ErrInvalidTimeRange
	}
	return s, e, nil
}

// startAttempt inserts the attempt row followed by one answered-question row
// per submitted pair. Questions the user skipped are simply absent.
func startAttempt(ctx context.Context, tx Tx, userID, categoryID int64, answers []domain.Answer, start, end time.Time) (int64, error) {
	quizID, err := tx.InsertAttempt(ctx, domain.QuizAttempt{
		UserID:     userID,
		CategoryID: categoryID,
		TimeStart:  start,
		TimeEnd:    end,
	})
	if err != nil {
		return 0, err
	}
	if len(answers) > 0 {
		if err := tx.InsertAnswers(ctx, quizID, answers); err != nil {
			return 0, err
		}
	}
	return quizID, nil
}
