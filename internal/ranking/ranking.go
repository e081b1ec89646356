// Package ranking orders question lists by one of the named policies.
// All functions are pure: the input slice is never mutated.
package ranking

import (
	"sort"
	"time"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

type Policy string

const (
	Newest     Policy = "newest"
	Active     Policy = "active"
	Unanswered Policy = "unanswered"
)

// ParsePolicy falls back to Newest for empty input, mirroring the list
// endpoint's default ordering.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Newest, Active, Unanswered:
		return Policy(s), nil
	case "":
		return Newest, nil
	default:
		return "", models.ErrInvalidInput
	}
}

// Order returns a new slice holding questions ordered by policy. The newest
// ordering is the baseline applied before any policy-specific pass.
func Order(questions []models.QuestionView, policy Policy) []models.QuestionView {
	out := make([]models.QuestionView, len(questions))
	copy(out, questions)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	switch policy {
	case Active:
		sort.SliceStable(out, func(i, j int) bool {
			ai, aj := latestActivity(out[i]), latestActivity(out[j])
			if ai.Equal(aj) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return ai.After(aj)
		})
	case Unanswered:
		unanswered := []models.QuestionView{}
		for _, q := range out {
			if len(q.Answers) == 0 {
				unanswered = append(unanswered, q)
			}
		}
		out = unanswered
	}
	return out
}

// latestActivity is the creation time of the question's newest answer, or
// the question's own creation time when it has none. Answers without a
// timestamp rank as the zero time rather than breaking the sort.
func latestActivity(q models.QuestionView) time.Time {
	if len(q.Answers) == 0 {
		return q.CreatedAt
	}
	var latest time.Time
	for _, a := range q.Answers {
		if a.CreatedAt.After(latest) {
			latest = a.CreatedAt
		}
	}
	return latest
}
