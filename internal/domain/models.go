package domain

import "time"

// Difficulty is the fixed difficulty scale a quiz is published with.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Attempt is one completed, graded quiz submission. Attempts are immutable once recorded.
type Attempt struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	QuizID         string     `json:"quizId"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Score          int        `json:"score"` // percentage, 0-100
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
	TimeSpent      int        `json:"timeSpent"` // seconds
	CompletedAt    time.Time  `json:"completedAt"`
	Difficulty     Difficulty `json:"difficulty"`
	Passed         bool       `json:"passed"`
}

// Feedback is an instructor review attached to a learner's series of quizzes.
type Feedback struct {
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Instructor string    `json:"instructor"`
	Date       time.Time `json:"date"`
}
