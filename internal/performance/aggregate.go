// Package performance derives grouped summaries and filtered display views from a
// learner's quiz attempts. Every function here is pure: inputs are never mutated and each
// call allocates fresh output, so results can be recomputed on every render.
package performance

import (
	"fmt"
	"sort"

	"quiz-performance-service/internal/domain"
)

// Stats summarizes a set of attempts. AverageScore is nil when there are no attempts.
type Stats struct {
	TotalAttempts  int      `json:"totalAttempts"`
	PassedAttempts int      `json:"passedAttempts"`
	AverageScore   *float64 `json:"averageScore"`
}

// AverageLabel renders the average as a whole percentage, or a dash when undefined.
func (s Stats) AverageLabel() string {
	if s.AverageScore == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", *s.AverageScore)
}

// QuizGroup holds every attempt of one quiz, most recent first.
type QuizGroup struct {
	QuizID   string           `json:"quizId"`
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Attempts []domain.Attempt `json:"attempts"`
	Stats    Stats            `json:"stats"`
}

// Summary is the aggregate of a whole attempt store.
type Summary struct {
	Groups []QuizGroup `json:"groups"`
	Stats  Stats       `json:"stats"`
}

// Aggregate groups attempts by quiz and computes per-quiz and global stats.
// Groups keep the order in which their quiz first appears in attempts.
func Aggregate(attempts []domain.Attempt) Summary {
	groups := make([]QuizGroup, 0)
	index := make(map[string]int)
	var all tally

	for _, attempt := range attempts {
		i, ok := index[attempt.QuizID]
		if !ok {
			i = len(groups)
			index[attempt.QuizID] = i
			groups = append(groups, QuizGroup{
				QuizID:   attempt.QuizID,
				Title:    attempt.Title,
				Category: attempt.Category,
			})
		}
		groups[i].Attempts = append(groups[i].Attempts, attempt)
		all.add(attempt)
	}

	for i := range groups {
		group := &groups[i]
		// Sources do not guarantee recency order; ordinals depend on it.
		sort.SliceStable(group.Attempts, func(a, b int) bool {
			return group.Attempts[a].CompletedAt.After(group.Attempts[b].CompletedAt)
		})
		var t tally
		for _, attempt := range group.Attempts {
			t.add(attempt)
		}
		group.Stats = t.stats()
	}

	return Summary{Groups: groups, Stats: all.stats()}
}

type tally struct {
	total    int
	passed   int
	scoreSum int
}

func (t *tally) add(a domain.Attempt) {
	t.total++
	t.scoreSum += a.Score
	if a.Passed {
		t.passed++
	}
}

func (t tally) stats() Stats {
	s := Stats{TotalAttempts: t.total, PassedAttempts: t.passed}
	if t.total > 0 {
		avg := float64(t.scoreSum) / float64(t.total)
		s.AverageScore = &avg
	}
	return s
}
