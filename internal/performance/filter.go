package performance

import (
	"strconv"
	"strings"

	"quiz-performance-service/internal/domain"
)

// Filter narrows which attempts are displayed.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterPassed Filter = "passed"
	FilterFailed Filter = "failed"
)

// ParseFilter maps raw input to a Filter. Anything unrecognized means FilterAll.
func ParseFilter(raw string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case FilterPassed, FilterFailed:
		return f
	}
	return FilterAll
}

func (f Filter) keep(a domain.Attempt) bool {
	switch f {
	case FilterPassed:
		return a.Passed
	case FilterFailed:
		return !a.Passed
	}
	return true
}

// LabeledAttempt is an attempt annotated with its display ordinal.
type LabeledAttempt struct {
	domain.Attempt
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
}

// FilteredGroup is the displayed slice of a QuizGroup.
// GroupSize is the unfiltered attempt count that ordinals are numbered against.
type FilteredGroup struct {
	QuizID    string           `json:"quizId"`
	Title     string           `json:"title"`
	Category  string           `json:"category"`
	GroupSize int              `json:"groupSize"`
	Stats     Stats            `json:"stats"`
	Attempts  []LabeledAttempt `json:"attempts"`
}

// FilterAttempts keeps the attempts matching filter and labels each one "#N", where the
// oldest attempt of a group is #1. Ordinals are taken from the full group, so a label
// never changes with the filter. Groups left without attempts are dropped.
func FilterAttempts(groups []QuizGroup, filter Filter) []FilteredGroup {
	out := make([]FilteredGroup, 0, len(groups))
	for _, group := range groups {
		size := len(group.Attempts)
		var kept []LabeledAttempt
		for i, attempt := range group.Attempts {
			if !filter.keep(attempt) {
				continue
			}
			ordinal := size - i
			kept = append(kept, LabeledAttempt{
				Attempt: attempt,
				Ordinal: ordinal,
				Label:   "#" + strconv.Itoa(ordinal),
			})
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, FilteredGroup{
			QuizID:    group.QuizID,
			Title:     group.Title,
			Category:  group.Category,
			GroupSize: size,
			Stats:     group.Stats,
			Attempts:  kept,
		})
	}
	return out
}
