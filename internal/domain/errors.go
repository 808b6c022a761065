package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown id on read or targeted update.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when no valid identity could be derived.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the identity lacks the admin flag.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidQuestion indicates a choice set that breaks the single-correct rule.
	ErrInvalidQuestion = fmt.Errorf("%w: invalid question", ErrValidation)
	// ErrInvalidTimeRange indicates timeEnd before timeStart.
	ErrInvalidTimeRange = fmt.Errorf("%w: timeEnd must be >= timeStart", ErrValidation)
	// ErrInvalidReference indicates an id pointing at a row that does not exist.
	ErrInvalidReference = fmt.Errorf("%w: unknown category, question or choice", ErrValidation)
	// ErrInvalidStatus indicates an unknown user status.
	ErrInvalidStatus = fmt.Errorf("%w: status must be 'active' or 'suspended'", ErrValidation)

	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrChoiceNotFound indicates a choice id that does not belong to the question.
	ErrChoiceNotFound = fmt.Errorf("choice %w", ErrNotFound)
	// ErrQuizNotFound indicates an unknown quiz attempt id.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrUserNotFound indicates an unknown user id.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)
