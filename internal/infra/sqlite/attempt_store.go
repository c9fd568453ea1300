package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quiz-performance-service/internal/domain"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that text ordering in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AttemptStore keeps attempts and feedback in a local SQLite file, for running the
// service without Postgres.
type AttemptStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures its schema.
func Open(ctx context.Context, path string) (*AttemptStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	s := &AttemptStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *AttemptStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			time_spent_seconds INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			passed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS quiz_attempts_user_completed_idx
			ON quiz_attempts (user_id, completed_at DESC);`,
		`CREATE TABLE IF NOT EXISTS series_feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			instructor TEXT NOT NULL,
			given_on TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// LoadAttempts returns a user's attempts, most recently completed first.
func (s *AttemptStore) LoadAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, quiz_id, title, category, score, correct_answers,
		       total_questions, time_spent_seconds, completed_at, difficulty, passed
		FROM quiz_attempts
		WHERE user_id = ?
		ORDER BY completed_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var (
			a           domain.Attempt
			completedAt string
			difficulty  string
			passed      int
		)
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
			&completedAt,
			&difficulty,
			&passed,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.CompletedAt, err = time.Parse(timeLayout, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at for attempt %s: %w", a.ID, err)
		}
		a.Difficulty = domain.Difficulty(difficulty)
		a.Passed = passed == 1
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// SaveAttempt inserts an attempt. Re-sending an existing attempt ID is a no-op.
func (s *AttemptStore) SaveAttempt(ctx context.Context, a domain.Attempt) error {
	passed := 0
	if a.Passed {
		passed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quiz_attempts (id, user_id, quiz_id, title, category, score,
			correct_answers, total_questions, time_spent_seconds, completed_at, difficulty, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.QuizID, a.Title, a.Category, a.Score, a.CorrectAnswers,
		a.TotalQuestions, a.TimeSpent, a.CompletedAt.UTC().Format(timeLayout),
		string(a.Difficulty), passed,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// SaveFeedback stores an instructor review.
func (s *AttemptStore) SaveFeedback(ctx context.Context, f domain.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_feedback (user_id, title, message, instructor, given_on)
		VALUES (?, ?, ?, ?, ?)`,
		f.UserID, f.Title, f.Message, f.Instructor, f.Date.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *AttemptStore) LatestFeedback(ctx context.Context, userID string) (*domain.Feedback, error) {
	f := domain.Feedback{UserID: userID}
	var givenOn string
	err := s.db.QueryRowContext(ctx, `
		SELECT title, message, instructor, given_on
		FROM series_feedback
		WHERE user_id = ?
		ORDER BY given_on DESC
		LIMIT 1`, userID).Scan(&f.Title, &f.Message, &f.Instructor, &givenOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	if f.Date, err = time.Parse(timeLayout, givenOn); err != nil {
		return nil, fmt.Errorf("parse feedback date: %w", err)
	}
	return &f, nil
}

func (s *AttemptStore) Close() error {
	return s.db.Close()
}
