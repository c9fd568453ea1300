package memory

import (
	"context"
	"slices"
	"sync"

	"quiz-performance-service/internal/domain"
)

// StaticSource is an in-memory attempt and feedback store (useful for tests/demos).
// It serves as loader, recorder and feedback repository at once.
type StaticSource struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Attempt
	ids      map[string]struct{}
	feedback map[string][]domain.Feedback
}

func NewStaticSource(attempts []domain.Attempt, feedback []domain.Feedback) *StaticSource {
	s := &StaticSource{
		attempts: make(map[string][]domain.Attempt),
		ids:      make(map[string]struct{}),
		feedback: make(map[string][]domain.Feedback),
	}
	for _, a := range attempts {
		if _, ok := s.ids[a.ID]; ok {
			continue
		}
		s.ids[a.ID] = struct{}{}
		s.attempts[a.UserID] = append(s.attempts[a.UserID], a)
	}
	for _, f := range feedback {
		s.feedback[f.UserID] = append(s.feedback[f.UserID], f)
	}
	return s
}

// LoadAttempts returns the user's attempts in insertion order. Unknown users have none.
func (s *StaticSource) LoadAttempts(_ context.Context, userID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attempts[userID]), nil
}

// SaveAttempt appends an attempt. Re-sending an existing attempt ID is a no-op.
func (s *StaticSource) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[attempt.ID]; ok {
		return nil
	}
	s.ids[attempt.ID] = struct{}{}
	s.attempts[attempt.UserID] = append(s.attempts[attempt.UserID], attempt)
	return nil
}

func (s *StaticSource) LatestFeedback(_ context.Context, userID string) (*domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Feedback
	for i := range s.feedback[userID] {
		f := s.feedback[userID][i]
		if latest == nil || f.Date.After(latest.Date) {
			latest = &f
		}
	}
	return latest, nil
}
