package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-engine-service/internal/domain"
)

// IssuedSets keeps the question set handed to each user in Redis so every
// instance behind the load balancer returns the same set on reload.
type IssuedSets struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIssuedSets(client *redis.Client, ttl time.Duration) *IssuedSets {
	return &IssuedSets{client: client, ttl: ttl}
}

func (s *IssuedSets) Get(ctx context.Context, userID, categoryID int64) (domain.IssuedSet, bool, error) {
	raw, err := s.client.Get(ctx, issuedKey(userID, categoryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IssuedSet{}, false, nil
	}
	if err != nil {
		return domain.IssuedSet{}, false, fmt.Errorf("get issued set: %w", err)
	}
	var set domain.IssuedSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.IssuedSet{}, false, fmt.Errorf("decode issued set: %w", err)
	}
	return set, true, nil
}

func (s *IssuedSets) Put(ctx context.Context, set domain.IssuedSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode issued set: %w", err)
	}
	if err := s.client.Set(ctx, issuedKey(set.UserID, set.CategoryID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("put issued set: %w", err)
	}
	return nil
}

func (s *IssuedSets) Delete(ctx context.Context, userID, categoryID int64) error {
	if err := s.client.Del(ctx, issuedKey(userID, categoryID)).Err(); err != nil {
		return fmt.Errorf("delete issued set: %w", err)
	}
	return nil
}

func issuedKey(userID, categoryID int64) string {
	return fmt.Sprintf("quiz:issued:%d:%d", userID, categoryID)
}
