package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-performance-service/internal/domain"
	"quiz-performance-service/internal/infra/memory"
)

func TestAttemptRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{AttemptLoader: memory.NewStaticSource(sampleAttempts(), nil)}
	repo := NewAttemptRepository(client, loader, time.Minute)

	attempts, err := repo.FetchAttempts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("performance:u1:attempts") {
		t.Fatalf("expected attempts cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.FetchAttempts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch cached: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if cached[0].ID != "a1" || cached[1].ID != "a2" {
		t.Fatalf("expected load order preserved, got %s, %s", cached[0].ID, cached[1].ID)
	}
	if !cached[1].CompletedAt.Equal(attempts[1].CompletedAt) {
		t.Fatalf("expected completedAt to survive the round trip")
	}
}

func TestAttemptRepositoryCachesEmptyHistory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AttemptLoader: memory.NewStaticSource(nil, nil)}
	repo := NewAttemptRepository(newClient(mr), loader, time.Minute)

	for i := 0; i < 2; i++ {
		attempts, err := repo.FetchAttempts(context.Background(), "new-user")
		if err != nil {
			t.Fatalf("fetch attempts: %v", err)
		}
		if len(attempts) != 0 {
			t.Fatalf("expected empty history, got %d", len(attempts))
		}
	}
	if loader.count() != 1 {
		t.Fatalf("expected empty history cached, loader calls=%d", loader.count())
	}
}

func TestAttemptRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AttemptLoader: memory.NewStaticSource(sampleAttempts(), nil)}
	repo := NewAttemptRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.FetchAttempts(ctx, "u1")
	if err := repo.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("performance:u1:attempts") {
		t.Fatalf("expected cache key removed")
	}
	_, _ = repo.FetchAttempts(ctx, "u1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

type countingLoader struct {
	memory.AttemptLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.AttemptLoader.LoadAttempts(ctx, userID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleAttempts() []domain.Attempt {
	return []domain.Attempt{
		{ID: "a1", UserID: "u1", QuizID: "quiz-1", Title: "Indian Music Fundamentals", Score: 20, CorrectAnswers: 2, TotalQuestions: 10, CompletedAt: time.Date(2024, time.October, 24, 10, 30, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium},
		{ID: "a2", UserID: "u1", QuizID: "quiz-1", Title: "Indian Music Fundamentals", Score: 55, CorrectAnswers: 5, TotalQuestions: 10, CompletedAt: time.Date(2024, time.October, 25, 14, 20, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium, Passed: true},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestAttemptRepositoryDropsLoadInvalidatedMidway(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := memory.NewStaticSource(sampleAttempts(), nil)
	loader := newGatedLoader(source)
	repo := NewAttemptRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	done := make(chan []domain.Attempt)
	go func() {
		attempts, err := repo.FetchAttempts(ctx, "u1")
		if err != nil {
			t.Errorf("fetch attempts: %v", err)
		}
		done <- attempts
	}()

	// The first load has read the old history and is parked.
	<-loader.loaded

	recorded := domain.Attempt{ID: "a3", UserID: "u1", QuizID: "quiz-2", Score: 80, TotalQuestions: 10, CorrectAnswers: 8, CompletedAt: time.Date(2024, time.October, 26, 9, 0, 0, 0, time.UTC), Difficulty: domain.DifficultyEasy, Passed: true}
	if err := source.SaveAttempt(ctx, recorded); err != nil {
		t.Fatalf("save attempt: %v", err)
	}
	if err := repo.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	close(loader.gate)
	if stale := <-done; len(stale) != 2 {
		t.Fatalf("expected the in-flight load to return its 2 attempts, got %d", len(stale))
	}
	if mr.Exists("performance:u1:attempts") {
		t.Fatalf("expected the invalidated load not to be cached")
	}

	attempts, err := repo.FetchAttempts(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch attempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts after record and invalidate, got %d", len(attempts))
	}
	if !mr.Exists("performance:u1:attempts") {
		t.Fatalf("expected fresh load to be cached")
	}
}

// gatedLoader reads from the source, reports on loaded, then waits for gate to close.
type gatedLoader struct {
	source memory.AttemptLoader
	loaded chan struct{}
	gate   chan struct{}
}

func newGatedLoader(source memory.AttemptLoader) *gatedLoader {
	return &gatedLoader{
		source: source,
		loaded: make(chan struct{}, 8),
		gate:   make(chan struct{}),
	}
}

func (l *gatedLoader) LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	attempts, err := l.source.LoadAttempts(ctx, userID)
	l.loaded <- struct{}{}
	<-l.gate
	return attempts, err
}
