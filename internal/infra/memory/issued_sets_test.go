package memory

import (
	"context"
	"testing"
	"time"

	"quiz-engine-service/internal/domain"
)

func TestIssuedSetsLifecycle(t *testing.T) {
	sets := NewIssuedSets(time.Hour)
	ctx := context.Background()

	if _, ok, _ := sets.Get(ctx, 1, 2); ok {
		t.Fatalf("expected empty store")
	}

	set := domain.IssuedSet{
		UserID:     1,
		CategoryID: 2,
		Questions:  []domain.SampledQuestion{{QuestionID: 10, Description: "q"}},
	}
	if err := sets.Put(ctx, set); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := sets.Get(ctx, 1, 2)
	if err != nil || !ok {
		t.Fatalf("expected issued set, ok=%v err=%v", ok, err)
	}
	if len(got.Questions) != 1 || got.Questions[0].QuestionID != 10 {
		t.Fatalf("unexpected set %+v", got)
	}
	if _, ok, _ := sets.Get(ctx, 1, 3); ok {
		t.Fatalf("sets must be keyed by category")
	}

	if err := sets.Delete(ctx, 1, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := sets.Get(ctx, 1, 2); ok {
		t.Fatalf("expected set removed")
	}
}

func TestIssuedSetsExpire(t *testing.T) {
	sets := NewIssuedSets(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sets.clock = func() time.Time { return now }
	ctx := context.Background()

	_ = sets.Put(ctx, domain.IssuedSet{UserID: 1, CategoryID: 1})
	now = now.Add(30 * time.Second)
	if _, ok, _ := sets.Get(ctx, 1, 1); !ok {
		t.Fatalf("expected set before ttl")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := sets.Get(ctx, 1, 1); ok {
		t.Fatalf("expected set expired")
	}
}
