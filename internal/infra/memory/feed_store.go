package memory

import (
	"sync"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/performance"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
// Viewers join and leave under the store lock, so a feed is only dropped when it is
// really empty.
type FeedStore struct {
	mu    sync.Mutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
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

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if feed.Detach(ch) && s.feeds[userID] == feed {
				delete(s.feeds, userID)
			}
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

