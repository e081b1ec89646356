// Package search filters question lists against a raw search string.
// Filtering is a pure predicate applied after ranking; it preserves the
// order of its input.
package search

import (
	"regexp"
	"strings"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

var (
	tagPattern     = regexp.MustCompile(`\[([^\]]+)\]`)
	keywordPattern = regexp.MustCompile(`\b\w+\b`)
)

// Filter returns the subset of questions matching the raw search string.
// Bracketed tokens are tag criteria (OR across tags), remaining words are
// keyword criteria (AND across keywords); when both are present a question
// matches if either rule matches. An empty search matches everything.
func Filter(questions []models.QuestionView, rawSearch string) []models.QuestionView {
	tags, keywords := Parse(rawSearch)
	if len(tags) == 0 && len(keywords) == 0 {
		return questions
	}

	out := []models.QuestionView{}
	for _, q := range questions {
		switch {
		case len(keywords) == 0:
			if matchesTags(q, tags) {
				out = append(out, q)
			}
		case len(tags) == 0:
			if matchesKeywords(q, keywords) {
				out = append(out, q)
			}
		default:
			if matchesKeywords(q, keywords) || matchesTags(q, tags) {
				out = append(out, q)
			}
		}
	}
	return out
}

// Parse splits a raw search string into its tag and keyword tokens.
// Tags are the contents of [...] groups; keywords are the word tokens left
// after stripping those groups.
func Parse(rawSearch string) (tags []string, keywords []string) {
	for _, m := range tagPattern.FindAllStringSubmatch(rawSearch, -1) {
		tags = append(tags, m[1])
	}
	stripped := tagPattern.ReplaceAllString(rawSearch, " ")
	keywords = keywordPattern.FindAllString(stripped, -1)
	return tags, keywords
}

func matchesTags(q models.QuestionView, searchTags []string) bool {
	for _, st := range searchTags {
		for _, t := range q.Tags {
			if strings.EqualFold(t.Name, st) {
				return true
			}
		}
	}
	return false
}

func matchesKeywords(q models.QuestionView, keywords []string) bool {
	title := strings.ToLower(q.Title)
	body := strings.ToLower(q.Body)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if !strings.Contains(title, kw) && !strings.Contains(body, kw) {
			return false
		}
	}
	return true
}
