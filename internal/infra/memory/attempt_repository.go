package memory

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-performance-service/internal/domain"
)

// AttemptLoader fetches a user's attempts from a backing store (Postgres, SQLite, fixtures).
type AttemptLoader interface {
	LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// AttemptRepository caches attempts per user with TTL to avoid repeated DB hits.
type AttemptRepository struct {
	loader AttemptLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu          sync.RWMutex
	rndMu       sync.Mutex
	cache       map[string]cachedAttempts
	generations map[string]uint64
}

type cachedAttempts struct {
	attempts  []domain.Attempt
	expiresAt time.Time
}

func NewAttemptRepository(loader AttemptLoader, ttl time.Duration) *AttemptRepository {
	return &AttemptRepository{
		loader:      loader,
		ttl:         ttl,
		clock:       time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:       make(map[string]cachedAttempts),
		generations: make(map[string]uint64),
	}
}

func (r *AttemptRepository) FetchAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	if attempts, ok := r.lookup(userID); ok {
		return attempts, nil
	}

	result, err, _ := r.sf.Do(userID, func() (interface{}, error) {
		if attempts, ok := r.lookup(userID); ok {
			return attempts, nil
		}

		r.mu.RLock()
		gen := r.generations[userID]
		r.mu.RUnlock()

		attempts, err := r.loader.LoadAttempts(ctx, userID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		// A write invalidated the user while we were loading; serve but don't cache.
		if r.generations[userID] == gen {
			r.cache[userID] = cachedAttempts{
				attempts:  slices.Clone(attempts),
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
		}
		r.mu.Unlock()
		return attempts, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(result.([]domain.Attempt)), nil
}

// Invalidate drops the cached attempts of a user.
func (r *AttemptRepository) Invalidate(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.cache, userID)
	r.generations[userID]++
	r.mu.Unlock()
	r.sf.Forget(userID)
	return nil
}

func (r *AttemptRepository) lookup(userID string) ([]domain.Attempt, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[userID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return slices.Clone(entry.attempts), true
}

func (r *AttemptRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
