package report

import (
	"bytes"
	"encoding/csv"
	"slices"
	"testing"
	"time"

	"quiz-performance-service/internal/domain"
	"quiz-performance-service/internal/performance"
)

func sampleView(filter performance.Filter) performance.View {
	attempts := []domain.Attempt{
		{ID: "1", QuizID: "1", Title: "Indian Music Fundamentals", Category: "Theory", Score: 20, CorrectAnswers: 2, TotalQuestions: 10, TimeSpent: 180, CompletedAt: time.Date(2024, time.October, 24, 10, 30, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium},
		{ID: "2", QuizID: "1", Title: "Indian Music Fundamentals", Category: "Theory", Score: 55, CorrectAnswers: 5, TotalQuestions: 10, TimeSpent: 240, CompletedAt: time.Date(2024, time.October, 25, 14, 20, 0, 0, time.UTC), Difficulty: domain.DifficultyMedium, Passed: true},
		{ID: "3", QuizID: "2", Title: "Raga Identification", Category: "Practical", Score: 75, CorrectAnswers: 15, TotalQuestions: 20, TimeSpent: 600, CompletedAt: time.Date(2024, time.October, 23, 16, 45, 0, 0, time.UTC), Difficulty: domain.DifficultyHard, Passed: true},
	}
	return performance.Project(performance.Aggregate(attempts), performance.ViewState{Filter: filter})
}

func writeRows(t *testing.T, view performance.View, want int) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, view); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != want {
		t.Fatalf("expected %d rows, got %d: %v", want, len(rows), rows)
	}
	return rows
}

func TestWriteCSV(t *testing.T) {
	rows := writeRows(t, sampleView(performance.FilterAll), 5)

	if !slices.Equal(rows[0], header) {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{"1", "Indian Music Fundamentals", "Theory", "#2 of 2", "55", "5", "10", "240", "Medium", "true", "2024-10-25T14:20:00Z"}
	if !slices.Equal(rows[1], want) {
		t.Fatalf("expected %v, got %v", want, rows[1])
	}
	if rows[2][3] != "#1 of 2" || rows[3][3] != "#1 of 1" {
		t.Fatalf("unexpected ordinals %q, %q", rows[2][3], rows[3][3])
	}
	totals := rows[4]
	if totals[1] != "TOTAL" || totals[3] != "3 attempts" || totals[4] != "50%" || totals[9] != "2/3" {
		t.Fatalf("unexpected totals row %v", totals)
	}
}

func TestWriteCSVFiltered(t *testing.T) {
	rows := writeRows(t, sampleView(performance.FilterFailed), 3)

	if rows[1][4] != "20" || rows[1][3] != "#1 of 2" {
		t.Fatalf("expected failed attempt #1 of 2 with score 20, got %v", rows[1])
	}
	if rows[2][3] != "3 attempts" {
		t.Fatalf("expected totals over all attempts, got %v", rows[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	view := performance.Project(performance.Aggregate(nil), performance.ViewState{})
	rows := writeRows(t, view, 2)

	if rows[1][4] != "—" || rows[1][9] != "0/0" {
		t.Fatalf("expected placeholder totals, got %v", rows[1])
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, time.October, 26, 8, 0, 0, 0, time.UTC)
	if got := Filename("u1", performance.FilterPassed, at); got != "performance-u1-passed-20241026.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
