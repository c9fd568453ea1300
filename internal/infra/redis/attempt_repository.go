package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-performance-service/internal/domain"
)

// AttemptLoader fetches a user's attempts from a backing store.
type AttemptLoader interface {
	LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// AttemptRepository caches each user's attempts in Redis and falls back to a loader on miss.
// Attempts are stored as a JSON array, preserving load order:
//
//	SET performance:{userID}:attempts [...] EX ttl
//
// performance:{userID}:generation is bumped on every invalidation. A load only fills the
// cache if the generation it started under is still current.
type AttemptRepository struct {
	client *redis.Client
	loader AttemptLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAttemptRepository(client *redis.Client, loader AttemptLoader, ttl time.Duration) *AttemptRepository {
	return &AttemptRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AttemptRepository) FetchAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	if attempts, ok := r.readCache(ctx, userID); ok {
		return attempts, nil
	}

	result, err, _ := r.sf.Do(userID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if attempts, ok := r.readCache(ctx, userID); ok {
			return attempts, nil
		}

		gen, genErr := r.generation(ctx, r.client, userID)

		attempts, err := r.loader.LoadAttempts(ctx, userID)
		if err != nil {
			return nil, err
		}
		if attempts == nil {
			attempts = []domain.Attempt{}
		}

		if genErr != nil {
			slog.Warn("attempt cache generation read failed", "user_id", userID, "error", genErr)
			return attempts, nil
		}
		if err := r.store(ctx, userID, gen, attempts); err != nil {
			slog.Warn("attempt cache write failed", "user_id", userID, "error", err)
		}
		return attempts, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Attempt), nil
}

// Invalidate bumps the user's generation and deletes the cached attempts.
// Loads already in flight will not write their result back.
func (r *AttemptRepository) Invalidate(ctx context.Context, userID string) error {
	r.sf.Forget(userID)
	if err := r.client.Incr(ctx, r.generationKey(userID)).Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, r.key(userID)).Err()
}

// store writes attempts under WATCH so the SET only lands while gen is current.
func (r *AttemptRepository) store(ctx context.Context, userID string, gen int64, attempts []domain.Attempt) error {
	raw, err := json.Marshal(attempts)
	if err != nil {
		return err
	}
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.generation(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(userID), raw, r.ttlWithJitter())
			return nil
		})
		return err
	}, r.generationKey(userID))
	if errors.Is(err, errStaleLoad) || errors.Is(err, redis.TxFailedErr) {
		slog.Debug("attempt cache write skipped, invalidated during load", "user_id", userID)
		return nil
	}
	return err
}

var errStaleLoad = errors.New("attempts invalidated during load")

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *AttemptRepository) generation(ctx context.Context, c getter, userID string) (int64, error) {
	gen, err := c.Get(ctx, r.generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *AttemptRepository) readCache(ctx context.Context, userID string) ([]domain.Attempt, bool) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("attempt cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	var attempts []domain.Attempt
	if err := json.Unmarshal(raw, &attempts); err != nil {
		slog.Warn("attempt cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}
	return attempts, true
}

func (r *AttemptRepository) key(userID string) string {
	return "performance:" + userID + ":attempts"
}

func (r *AttemptRepository) generationKey(userID string) string {
	return "performance:" + userID + ":generation"
}

func (r *AttemptRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
