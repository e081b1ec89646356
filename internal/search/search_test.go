package search

import (
	"reflect"
	"testing"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

func question(id int, title, body string, tagNames ...string) models.QuestionView {
	q := models.QuestionView{}
	q.ID = id
	q.Title = title
	q.Body = body
	for i, name := range tagNames {
		q.Tags = append(q.Tags, models.Tag{ID: i + 1, Name: name})
	}
	return q
}

func ids(qs []models.QuestionView) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestParse(t *testing.T) {
	cases := []struct {
		raw      string
		tags     []string
		keywords []string
	}{
		{"", nil, nil},
		{"[android]", []string{"android"}, nil},
		{"storage [react]", []string{"react"}, []string{"storage"}},
		{"[a][b] web storage", []string{"a", "b"}, []string{"web", "storage"}},
		{"shared preferences", nil, []string{"shared", "preferences"}},
	}
	for _, c := range cases {
		tags, keywords := Parse(c.raw)
		if !reflect.DeepEqual(tags, c.tags) || !reflect.DeepEqual(keywords, c.keywords) {
			t.Errorf("Parse(%q) = %v, %v, want %v, %v", c.raw, tags, keywords, c.tags, c.keywords)
		}
	}
}

func TestFilterPassthrough(t *testing.T) {
	qs := []models.QuestionView{
		question(1, "a", "b"),
		question(2, "c", "d"),
	}
	got := Filter(qs, "   ")
	if !reflect.DeepEqual(ids(got), []int{1, 2}) {
		t.Fatalf("Filter(blank) = %v, want all questions", ids(got))
	}
}

func TestFilterByTag(t *testing.T) {
	qs := []models.QuestionView{
		question(1, "q one", "", "Android", "storage"),
		question(2, "q two", "", "react"),
		question(3, "q three", ""),
	}
	got := Filter(qs, "[android]")
	if !reflect.DeepEqual(ids(got), []int{1}) {
		t.Fatalf("Filter([android]) = %v, want [1] (case-insensitive tag match)", ids(got))
	}

	// OR across search tags.
	got = Filter(qs, "[android] [react]")
	if !reflect.DeepEqual(ids(got), []int{1, 2}) {
		t.Fatalf("Filter([android] [react]) = %v, want [1 2]", ids(got))
	}
}

func TestFilterByKeywords(t *testing.T) {
	qs := []models.QuestionView{
		question(1, "Android shared preferences", "how do I store data"),
		question(2, "Web storage", "local storage on the web"),
		question(3, "Unrelated", "nothing here"),
	}
	// AND across keywords: both must appear in title or body.
	got := Filter(qs, "storage web")
	if !reflect.DeepEqual(ids(got), []int{2}) {
		t.Fatalf("Filter(storage web) = %v, want [2]", ids(got))
	}
}

func TestFilterCombined(t *testing.T) {
	qs := []models.QuestionView{
		question(1, "persist data", "use storage APIs"),
		question(2, "hooks", "state management", "react"),
		question(3, "other", "other"),
	}
	// Union of keyword matches and tag matches, order preserved.
	got := Filter(qs, "storage [react]")
	if !reflect.DeepEqual(ids(got), []int{1, 2}) {
		t.Fatalf("Filter(storage [react]) = %v, want [1 2]", ids(got))
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	qs := []models.QuestionView{
		question(3, "storage c", ""),
		question(1, "storage a", ""),
		question(2, "storage b", ""),
	}
	got := Filter(qs, "storage")
	if !reflect.DeepEqual(ids(got), []int{3, 1, 2}) {
		t.Fatalf("Filter must preserve input order, got %v", ids(got))
	}
}
