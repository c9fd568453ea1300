package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quiz-performance-service/internal/domain"
	"quiz-performance-service/internal/performance"
)

// AttemptRepository supplies a user's attempts (from cache or backing store).
type AttemptRepository interface {
	FetchAttempts(ctx context.Context, userID string) ([]domain.Attempt, error)
	Invalidate(ctx context.Context, userID string) error
}

// AttemptRecorder persists newly graded attempts.
type AttemptRecorder interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
}

// FeedbackRepository loads instructor feedback. A nil result means there is none.
type FeedbackRepository interface {
	LatestFeedback(ctx context.Context, userID string) (*domain.Feedback, error)
}

// FeedRepository abstracts how live feeds are kept (in-memory, Redis, etc).
// Subscribe must create the feed and attach the viewer atomically, and the returned
// cancel must detach the viewer and drop the feed once it is empty.
type FeedRepository interface {
	Subscribe(userID string) (*Feed, chan performance.Summary, func())
	Get(userID string) (*Feed, bool)
}

// Overview is the full performance page for one user.
type Overview struct {
	View     performance.View `json:"view"`
	Feedback *domain.Feedback `json:"feedback"`
}

// PerformanceService contains the performance-history use cases.
type PerformanceService struct {
	attempts AttemptRepository
	recorder AttemptRecorder
	feedback FeedbackRepository
	feeds    FeedRepository
	now      func() time.Time
	newID    func() string
}

func NewPerformanceService(attempts AttemptRepository, recorder AttemptRecorder, feedback FeedbackRepository, feeds FeedRepository) *PerformanceService {
	return &PerformanceService{
		attempts: attempts,
		recorder: recorder,
		feedback: feedback,
		feeds:    feeds,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Summary aggregates every attempt of a user.
func (s *PerformanceService) Summary(ctx context.Context, userID string) (performance.Summary, error) {
	if userID == "" {
		return performance.Summary{}, domain.ErrUserRequired
	}
	attempts, err := s.attempts.FetchAttempts(ctx, userID)
	if err != nil {
		return performance.Summary{}, fmt.Errorf("fetch attempts: %w", err)
	}
	return performance.Aggregate(attempts), nil
}

// Overview loads attempts and feedback concurrently and projects them for the viewer.
func (s *PerformanceService) Overview(ctx context.Context, userID string, state performance.ViewState) (Overview, error) {
	if userID == "" {
		return Overview{}, domain.ErrUserRequired
	}

	var (
		summary  performance.Summary
		feedback *domain.Feedback
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.Summary(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = s.feedback.LatestFeedback(gctx, userID)
		if err != nil {
			return fmt.Errorf("load feedback: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return Overview{
		View:     performance.Project(summary, state),
		Feedback: feedback,
	}, nil
}

// RecordAttempt stores a graded attempt and pushes a fresh summary to the user's live feed.
func (s *PerformanceService) RecordAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	if err := validateAttempt(attempt); err != nil {
		return domain.Attempt{}, err
	}
	if attempt.ID == "" {
		attempt.ID = s.newID()
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = s.now().UTC()
	}

	if err := s.recorder.SaveAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	if err := s.attempts.Invalidate(ctx, attempt.UserID); err != nil {
		slog.Warn("attempt cache invalidation failed", "user_id", attempt.UserID, "error", err)
	}

	if err := s.Refresh(ctx, attempt.UserID); err != nil && !errors.Is(err, domain.ErrFeedNotFound) {
		slog.Warn("feed refresh failed", "user_id", attempt.UserID, "error", err)
	}

	slog.Info("attempt recorded",
		"attempt_id", attempt.ID,
		"user_id", attempt.UserID,
		"quiz_id", attempt.QuizID,
		"score", attempt.Score,
		"passed", attempt.Passed,
	)
	return attempt, nil
}

// Refresh recomputes the user's summary and pushes it to live viewers.
// It returns domain.ErrFeedNotFound when nobody is watching.
func (s *PerformanceService) Refresh(ctx context.Context, userID string) error {
	feed, ok := s.feeds.Get(userID)
	if !ok {
		return domain.ErrFeedNotFound
	}
	return feed.refresh(func() (performance.Summary, error) {
		return s.Summary(ctx, userID)
	}, feed.publish)
}

// Subscribe returns a channel of summaries for a user, starting with the current one.
// The viewer is registered before the first summary is computed, so an attempt recorded
// in between is never missed. The caller must invoke the returned cancel function.
func (s *PerformanceService) Subscribe(ctx context.Context, userID string) (<-chan performance.Summary, func(), error) {
	if userID == "" {
		return nil, nil, domain.ErrUserRequired
	}

	feed, ch, cancel := s.feeds.Subscribe(userID)
	err := feed.refresh(func() (performance.Summary, error) {
		return s.Summary(ctx, userID)
	}, func(summary performance.Summary) {
		feed.send(ch, summary)
	})
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

func validateAttempt(a domain.Attempt) error {
	switch {
	case a.UserID == "":
		return fmt.Errorf("%w: userId is required", domain.ErrInvalidAttempt)
	case a.QuizID == "":
		return fmt.Errorf("%w: quizId is required", domain.ErrInvalidAttempt)
	case a.Score < 0 || a.Score > 100:
		return fmt.Errorf("%w: score %d outside 0-100", domain.ErrInvalidAttempt, a.Score)
	case a.CorrectAnswers < 0 || a.TotalQuestions < 0 || a.TimeSpent < 0:
		return fmt.Errorf("%w: counters must not be negative", domain.ErrInvalidAttempt)
	case a.CorrectAnswers > a.TotalQuestions:
		return fmt.Errorf("%w: %d correct answers out of %d questions", domain.ErrInvalidAttempt, a.CorrectAnswers, a.TotalQuestions)
	case !a.Difficulty.Valid():
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidAttempt, a.Difficulty)
	}
	return nil
}
