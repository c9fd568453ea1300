// Package report renders a performance view as a downloadable CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"quiz-performance-service/internal/performance"
)

var header = []string{
	"quiz_id", "quiz", "category", "attempt", "score", "correct", "total_questions",
	"time_spent_seconds", "difficulty", "passed", "completed_at",
}

// WriteCSV writes one row per displayed attempt, in display order, followed by a totals row.
func WriteCSV(w io.Writer, view performance.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, group := range view.Groups {
		for _, attempt := range group.Attempts {
			row := []string{
				group.QuizID,
				group.Title,
				group.Category,
				fmt.Sprintf("%s of %d", attempt.Label, group.GroupSize),
				strconv.Itoa(attempt.Score),
				strconv.Itoa(attempt.CorrectAnswers),
				strconv.Itoa(attempt.TotalQuestions),
				strconv.Itoa(attempt.TimeSpent),
				string(attempt.Difficulty),
				strconv.FormatBool(attempt.Passed),
				attempt.CompletedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write attempt %s: %w", attempt.ID, err)
			}
		}
	}

	// Totals always cover every attempt, whatever the filter.
	totals := []string{
		"", "TOTAL", "", fmt.Sprintf("%d attempts", view.Stats.TotalAttempts),
		view.Stats.AverageLabel(), "", "", "", "",
		fmt.Sprintf("%d/%d", view.Stats.PassedAttempts, view.Stats.TotalAttempts), "",
	}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// Filename is the suggested download name for a user's report.
func Filename(userID string, filter performance.Filter, now time.Time) string {
	return fmt.Sprintf("performance-%s-%s-%s.csv", userID, filter, now.UTC().Format("20060102"))
}
