package redis

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/performance"
)

// FeedStore is a Redis-aware implementation of app.FeedRepository.
// Feeds and their subscribers live in process. Redis keeps a viewer counter per user,
// performance:feed:{userID}, shared by every instance: INCR on join, DECR on leave,
// deleted when it reaches zero. It carries no TTL, so it stays accurate for as long as
// viewers are connected.
type FeedStore struct {
	client *redis.Client
	mu     sync.Mutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client) *FeedStore {
	return &FeedStore{
		client: client,
		feeds:  make(map[string]*app.Feed),
	}
}

func (s *FeedStore) Subscribe(userID string) (*app.Feed, chan performance.Summary, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[userID]
	if !ok {
		feed = app.NewFeed()
		s.feeds[userID] = feed
	}
	ch := feed.Attach()
	s.markJoined(userID)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if feed.Detach(ch) && s.feeds[userID] == feed {
				delete(s.feeds, userID)
			}
			s.markLeft(userID)
		})
	}
	return feed, ch, cancel
}

func (s *FeedStore) Get(userID string) (*app.Feed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[userID]
	return feed, ok
}

// best-effort: the marker is informational and never blocks a viewer
func (s *FeedStore) markJoined(userID string) {
	if err := s.client.Incr(context.Background(), s.key(userID)).Err(); err != nil {
		slog.Warn("feed marker update failed", "user_id", userID, "error", err)
	}
}

func (s *FeedStore) markLeft(userID string) {
	ctx := context.Background()
	left, err := s.client.Decr(ctx, s.key(userID)).Result()
	if err != nil {
		slog.Warn("feed marker update failed", "user_id", userID, "error", err)
		return
	}
	if left <= 0 {
		_ = s.client.Del(ctx, s.key(userID)).Err()
	}
}

func (s *FeedStore) key(userID string) string {
	return "performance:feed:" + userID
}
