package memory

import (
	"context"
	"sync"
	"time"

	"quiz-engine-service/internal/domain"
)

// IssuedSets is an in-memory implementation of app.IssuedSets. Entries expire
// after ttl; a zero ttl keeps them until deleted.
type IssuedSets struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.RWMutex
	sets map[issuedKey]domain.IssuedSet
}

type issuedKey struct {
	userID     int64
	categoryID int64
}

func NewIssuedSets(ttl time.Duration) *IssuedSets {
	return &IssuedSets{
		ttl:   ttl,
		clock: time.Now,
		sets:  make(map[issuedKey]domain.IssuedSet),
	}
}

func (s *IssuedSets) Get(_ context.Context, userID, categoryID int64) (domain.IssuedSet, bool, error) {
	s.mu.RLock()
	set, ok := s.sets[issuedKey{userID, categoryID}]
	s.mu.RUnlock()
	if !ok {
		return domain.IssuedSet{}, false, nil
	}
	if s.ttl > 0 && !set.IssuedAt.Add(s.ttl).After(s.clock()) {
		_ = s.Delete(context.Background(), userID, categoryID)
		return domain.IssuedSet{}, false, nil
	}
	return set, true, nil
}

func (s *IssuedSets) Put(_ context.Context, set domain.IssuedSet) error {
	if set.IssuedAt.IsZero() {
		set.IssuedAt = s.clock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[issuedKey{set.UserID, set.CategoryID}] = set
	return nil
}

func (s *IssuedSets) Delete(_ context.Context, userID, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, issuedKey{userID, categoryID})
	return nil
}
