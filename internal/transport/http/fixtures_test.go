package http

import (
	"time"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/domain"
	"quiz-performance-service/internal/infra/memory"
)

func newTestService() *app.PerformanceService {
	source := memory.NewStaticSource(sampleAttempts(), []domain.Feedback{{
		UserID:     "u1",
		Title:      "July Series Batch Review",
		Message:    "Good progress overall!",
		Instructor: "Pt. Rajesh Kumar",
		Date:       time.Date(2024, time.October, 20, 0, 0, 0, 0, time.UTC),
	}})
	return app.NewPerformanceService(
		memory.NewAttemptRepository(source, time.Minute),
		source,
		source,
		memory.NewFeedStore(),
	)
}

func sampleAttempts() []domain.Attempt {
	return []domain.Attempt{
		{ID: "1", UserID: "u1", QuizID: "1", Title: "Indian Music Fundamentals", Category: "Theory", Score: 20, CorrectAnswers: 2, TotalQuestions: 10, TimeSpent: 180, CompletedAt: time.Date(2024, time.October, 24, 10, 30, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium},
		{ID: "2", UserID: "u1", QuizID: "1", Title: "Indian Music Fundamentals", Category: "Theory", Score: 55, CorrectAnswers: 5, TotalQuestions: 10, TimeSpent: 240, CompletedAt: time.Date(2024, time.October, 25, 14, 20, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium, Passed: true},
		{ID: "3", UserID: "u1", QuizID: "2", Title: "Raga Identification", Category: "Practical", Score: 75, CorrectAnswers: 15, TotalQuestions: 20, TimeSpent: 600, CompletedAt: time.Date(2024, time.October, 23, 16, 45, 0, 0, time.UTC), Difficulty: domain.DifficultyHard, Passed: true},
	}
}
