package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transactions run on a
// copy of the data that replaces the committed state only when the callback
// succeeds, so a failed transaction leaves nothing behind.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	categories map[int64]domain.Category
	questions  map[int64]domain.Question
	choices    map[int64]domain.Choice
	attempts   map[int64]domain.QuizAttempt
	answers    map[int64]domain.AnsweredQuestion
	users      map[int64]domain.User
	seq        map[string]int64
}

func NewStore() *Store {
	return &Store{state: &state{
		categories: make(map[int64]domain.Category),
		questions:  make(map[int64]domain.Question),
		choices:    make(map[int64]domain.Choice),
		attempts:   make(map[int64]domain.QuizAttempt),
		answers:    make(map[int64]domain.AnsweredQuestion),
		users:      make(map[int64]domain.User),
		seq:        make(map[string]int64),
	}}
}

func (st *state) clone() *state {
	return &state{
		categories: cloneMap(st.categories),
		questions:  cloneMap(st.questions),
		choices:    cloneMap(st.choices),
		attempts:   cloneMap(st.attempts),
		answers:    cloneMap(st.answers),
		users:      cloneMap(st.users),
		seq:        cloneMap(st.seq),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) next(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

// WithinTx runs fn against a private copy of the data and commits it on success.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(ctx, &storeTx{st: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = draft
	return nil
}

// Seeding helpers used by tests and the demo wiring.

func (s *Store) AddCategory(name string) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Category{ID: s.state.next("category"), Name: name}
	s.state.categories[c.ID] = c
	return c
}

func (s *Store) AddUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.state.next("user")
	s.state.users[u.ID] = u
	return u
}

// AddQuestion stores a question with the given choices as-is, without
// validating the single-correct rule.
func (s *Store) AddQuestion(categoryID int64, description string, active bool, choices ...domain.Choice) domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := domain.Question{
		ID:          s.state.next("question"),
		CategoryID:  categoryID,
		Description: description,
		IsActive:    active,
	}
	s.state.questions[q.ID] = q
	for _, c := range choices {
		c.ID = s.state.next("choice")
		c.QuestionID = q.ID
		s.state.choices[c.ID] = c
		q.Choices = append(q.Choices, c)
	}
	return q
}

// DeleteChoice removes a choice and nulls out answers that referenced it.
func (s *Store) DeleteChoice(choiceID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.choices, choiceID)
	for id, a := range s.state.answers {
		if a.ChosenChoiceID != nil && *a.ChosenChoiceID == choiceID {
			a.ChosenChoiceID = nil
			s.state.answers[id] = a
		}
	}
}

// Attempts returns every committed attempt ordered by id.
func (s *Store) Attempts() []domain.QuizAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizAttempt, 0, len(s.state.attempts))
	for _, a := range s.state.attempts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AnsweredQuestions returns the committed answer rows of an attempt ordered by id.
func (s *Store) AnsweredQuestions(quizID int64) []domain.AnsweredQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.answersOf(quizID)
}

// LoadPool returns the active questions of a category that have at least one
// choice. It satisfies the pool loader contract of the caches.
func (s *Store) LoadPool(_ context.Context, categoryID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Question, 0)
	for _, q := range s.state.questions {
		if q.CategoryID != categoryID || !q.IsActive {
			continue
		}
		q.Choices = s.state.choicesOf(q.ID)
		if len(q.Choices) == 0 {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) QuizHeader(_ context.Context, quizID int64) (domain.AttemptHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.attempts[quizID]
	if !ok {
		return domain.AttemptHeader{}, domain.ErrQuizNotFound
	}
	return s.state.header(a), nil
}

func (s *Store) ResultItems(_ context.Context, quizID int64) ([]domain.ResultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []domain.ResultItem
	for _, a := range s.state.answersOf(quizID) {
		q, ok := s.state.questions[a.QuestionID]
		if !ok {
			continue
		}
		for _, c := range s.state.choicesOf(q.ID) {
			items = append(items, domain.ResultItem{
				QuestionID:        q.ID,
				Question:          q.Description,
				ChoiceID:          c.ID,
				ChoiceDescription: c.Description,
				IsCorrect:         c.IsCorrect,
				UserChoiceID:      a.ChosenChoiceID,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].QuestionID != items[j].QuestionID {
			return items[i].QuestionID < items[j].QuestionID
		}
		return items[i].ChoiceID < items[j].ChoiceID
	})
	return items, nil
}

func (s *Store) ListAttempts(_ context.Context, filter domain.AttemptFilter) ([]domain.AttemptHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AttemptHeader, 0)
	for _, a := range s.state.attempts {
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		if filter.CategoryID != nil && a.CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, s.state.header(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TimeStart.Equal(out[j].TimeStart) {
			return out[i].TimeStart.After(out[j].TimeStart)
		}
		return out[i].QuizID > out[j].QuizID
	})
	return paginate(out, filter.Page), nil
}

func (s *Store) Question(_ context.Context, questionID int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.state.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Category = s.state.categories[q.CategoryID].Name
	q.Choices = s.state.choicesOf(q.ID)
	return q, nil
}

func (s *Store) ListQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Question, 0)
	for _, q := range s.state.questions {
		if filter.CategoryID != nil && q.CategoryID != *filter.CategoryID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(q.Description), needle) {
			continue
		}
		q.Category = s.state.categories[q.CategoryID].Name
		if filter.IncludeChoices {
			q.Choices = s.state.choicesOf(q.ID)
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Page), nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.state.categories))
	for _, c := range s.state.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) User(_ context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (st *state) choicesOf(questionID int64) []domain.Choice {
	var out []domain.Choice
	for _, c := range st.choices {
		if c.QuestionID == questionID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) answersOf(quizID int64) []domain.AnsweredQuestion {
	var out []domain.AnsweredQuestion
	for _, a := range st.answers {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) header(a domain.QuizAttempt) domain.AttemptHeader {
	u := st.users[a.UserID]
	return domain.AttemptHeader{
		QuizID:        a.ID,
		UserID:        a.UserID,
		UserFullName:  u.FullName(),
		UserEmail:     u.Email,
		CategoryID:    a.CategoryID,
		Category:      st.categories[a.CategoryID].Name,
		TimeStart:     a.TimeStart,
		TimeEnd:       a.TimeEnd,
		Score:         a.Score,
		QuestionCount: len(st.answersOf(a.ID)),
	}
}

func paginate[T any](items []T, p domain.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return items[:0]
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && len(items) > p.Limit {
		items = items[:p.Limit]
	}
	return items
}

// storeTx mutates a draft state. Foreign keys are checked the way the
// relational schema would.
type storeTx struct {
	st *state
}

func (t *storeTx) InsertAttempt(_ context.Context, a domain.QuizAttempt) (int64, error) {
	if _, ok := t.st.users[a.UserID]; !ok {
		return 0, domain.ErrInvalidReference
	}
	if _, ok := t.st.categories[a.CategoryID]; !ok {
		return 0, domain.ErrInvalidReference
	}
	a.ID = t.st.next("quiz")
	a.TimeStart = a.TimeStart.UTC()
	a.TimeEnd = a.TimeEnd.UTC()
	t.st.attempts[a.ID] = a
	return a.ID, nil
}

func (t *storeTx) InsertAnswers(_ context.Context, quizID int64, answers []domain.Answer) error {
	if _, ok := t.st.attempts[quizID]; !ok {
		return domain.ErrInvalidReference
	}
	for _, ans := range answers {
		if _, ok := t.st.questions[ans.QuestionID]; !ok {
			return domain.ErrInvalidReference
		}
		if _, ok := t.st.choices[ans.ChoiceID]; !ok {
			return domain.ErrInvalidReference
		}
		choiceID := ans.ChoiceID
		row := domain.AnsweredQuestion{
			ID:             t.st.next("quiz_question"),
			QuizID:         quizID,
			QuestionID:     ans.QuestionID,
			ChosenChoiceID: &choiceID,
		}
		t.st.answers[row.ID] = row
	}
	return nil
}

func (t *storeTx) AttemptScore(_ context.Context, quizID int64) (float64, error) {
	rows := t.st.answersOf(quizID)
	if len(rows) == 0 {
		return 0, nil
	}
	correct := 0
	for _, r := range rows {
		if r.ChosenChoiceID == nil {
			continue
		}
		if c, ok := t.st.choices[*r.ChosenChoiceID]; ok && c.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(rows)), nil
}

func (t *storeTx) SetAttemptScore(_ context.Context, quizID int64, score float64) error {
	a, ok := t.st.attempts[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	a.Score = score
	t.st.attempts[quizID] = a
	return nil
}

func (t *storeTx) InsertQuestion(_ context.Context, q domain.NewQuestion) (int64, error) {
	if _, ok := t.st.categories[q.CategoryID]; !ok {
		return 0, domain.ErrInvalidReference
	}
	id := t.st.next("question")
	t.st.questions[id] = domain.Question{
		ID:          id,
		CategoryID:  q.CategoryID,
		Description: q.Description,
		IsActive:    true,
	}
	return id, nil
}

func (t *storeTx) InsertChoice(_ context.Context, questionID int64, c domain.ChoiceInput) (int64, error) {
	if _, ok := t.st.questions[questionID]; !ok {
		return 0, domain.ErrInvalidReference
	}
	id := t.st.next("choice")
	t.st.choices[id] = domain.Choice{
		ID:          id,
		QuestionID:  questionID,
		Description: c.Description,
		IsCorrect:   c.IsCorrect,
	}
	return id, nil
}

func (t *storeTx) QuestionCategory(_ context.Context, questionID int64) (int64, error) {
	q, ok := t.st.questions[questionID]
	if !ok {
		return 0, domain.ErrQuestionNotFound
	}
	return q.CategoryID, nil
}

func (t *storeTx) UpdateQuestion(_ context.Context, r domain.QuestionReplacement) error {
	q, ok := t.st.questions[r.QuestionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if _, ok := t.st.categories[r.CategoryID]; !ok {
		return domain.ErrInvalidReference
	}
	q.CategoryID = r.CategoryID
	q.Description = r.Description
	q.IsActive = r.IsActive
	t.st.questions[q.ID] = q
	return nil
}

func (t *storeTx) ClearCorrect(_ context.Context, questionID int64) error {
	for id, c := range t.st.choices {
		if c.QuestionID == questionID && c.IsCorrect {
			c.IsCorrect = false
			t.st.choices[id] = c
		}
	}
	return nil
}

func (t *storeTx) UpdateChoice(_ context.Context, questionID int64, in domain.ChoiceInput) error {
	if in.ID == nil {
		return domain.ErrChoiceNotFound
	}
	c, ok := t.st.choices[*in.ID]
	if !ok || c.QuestionID != questionID {
		return domain.ErrChoiceNotFound
	}
	c.Description = in.Description
	c.IsCorrect = in.IsCorrect
	t.st.choices[c.ID] = c
	return nil
}

func (t *storeTx) SetQuestionActive(_ context.Context, questionID int64, active bool) (domain.QuestionStatus, error) {
	q, ok := t.st.questions[questionID]
	if !ok {
		return domain.QuestionStatus{}, domain.ErrQuestionNotFound
	}
	q.IsActive = active
	t.st.questions[questionID] = q
	return domain.QuestionStatus{QuestionID: questionID, IsActive: active}, nil
}

func (t *storeTx) SetUserActive(_ context.Context, userID int64, active bool) (domain.UserStatus, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return domain.UserStatus{}, domain.ErrUserNotFound
	}
	u.IsActive = active
	t.st.users[userID] = u
	return domain.UserStatus{UserID: userID, IsActive: active}, nil
}
