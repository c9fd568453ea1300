package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-performance-service/internal/domain"
)

// AttemptStore reads and writes attempts and instructor feedback in Postgres.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// LoadAttempts returns a user's attempts, most recently completed first.
func (s *AttemptStore) LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, quiz_id, title, category, score, correct_answers,
		       total_questions, time_spent_seconds, completed_at, difficulty, passed
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY completed_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var a domain.Attempt
		var difficulty string
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.QuizID,
			&a.Title,
			&a.Category,
			&a.Score,
			&a.CorrectAnswers,
			&a.TotalQuestions,
			&a.TimeSpent,
			&a.CompletedAt,
			&difficulty,
			&a.Passed,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Difficulty = domain.Difficulty(difficulty)
		a.CompletedAt = a.CompletedAt.UTC()
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// SaveAttempt inserts an attempt. Re-sending an existing attempt ID is a no-op.
func (s *AttemptStore) SaveAttempt(ctx context.Context, a domain.Attempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (id, user_id, quiz_id, title, category, score, correct_answers,
		                           total_questions, time_spent_seconds, completed_at, difficulty, passed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.UserID, a.QuizID, a.Title, a.Category, a.Score, a.CorrectAnswers,
		a.TotalQuestions, a.TimeSpent, a.CompletedAt, string(a.Difficulty), a.Passed,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) LatestFeedback(ctx context.Context, userID string) (*domain.Feedback, error) {
	f := domain.Feedback{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT title, message, instructor, given_on
		FROM series_feedback
		WHERE user_id = $1
		ORDER BY given_on DESC
		LIMIT 1`, userID).Scan(&f.Title, &f.Message, &f.Instructor, &f.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	return &f, nil
}
