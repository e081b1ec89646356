package models

import (
	"time"
)

const LimitMaxTags = 5

// ContentKind discriminates the three voteable, moderatable entities.
type ContentKind string

const (
	KindQuestion ContentKind = "question"
	KindAnswer   ContentKind = "answer"
	KindComment  ContentKind = "comment"
)

func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case KindQuestion, KindAnswer, KindComment:
		return ContentKind(s), nil
	default:
		return "", ErrInvalidInput
	}
}

type Question struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  int       `json:"authorId" db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Views     int       `json:"views"`
	VoteCount int       `json:"voteCount" db:"vote_count"`
	Flag      bool      `json:"flag"`
}

type Answer struct {
	ID         int       `json:"id"`
	QuestionID int       `json:"questionId" db:"question_id"`
	Body       string    `json:"body"`
	AuthorID   int       `json:"authorId" db:"author_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	VoteCount  int       `json:"voteCount" db:"vote_count"`
	Flag       bool      `json:"flag"`
}

type Comment struct {
	ID         int         `json:"id"`
	ParentKind ContentKind `json:"parentKind" db:"parent_kind"`
	ParentID   int         `json:"parentId" db:"parent_id"`
	Body       string      `json:"body"`
	AuthorID   int         `json:"authorId" db:"author_id"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	VoteCount  int         `json:"voteCount" db:"vote_count"`
	Flag       bool        `json:"flag"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TagCount pairs a tag with the number of questions carrying it.
type TagCount struct {
	Name string `json:"name"`
	Qcnt int    `json:"qcnt"`
}

// AnswerMeta is the slice of an answer the ranking engine needs.
type AnswerMeta struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// QuestionView is a question joined with everything the list endpoints
// return: tags, answer metadata and the public author.
type QuestionView struct {
	Question
	Tags    []Tag        `json:"tags"`
	Answers []AnswerMeta `json:"answers"`
	Author  PublicUser   `json:"author"`
}

// CommentView is a comment joined with its author and the caller's vote.
type CommentView struct {
	Comment
	Author   PublicUser `json:"author"`
	Upvote   bool       `json:"upvote"`
	Downvote bool       `json:"downvote"`
}

// AnswerView nests comments, sorted by vote count on assembly.
type AnswerView struct {
	Answer
	Author   PublicUser    `json:"author"`
	Comments []CommentView `json:"comments"`
	Upvote   bool          `json:"upvote"`
	Downvote bool          `json:"downvote"`
}

// QuestionDetail is the full fan-out for the single question page.
type QuestionDetail struct {
	Question
	Tags     []Tag         `json:"tags"`
	Author   PublicUser    `json:"author"`
	Answers  []AnswerView  `json:"answers"`
	Comments []CommentView `json:"comments"`
	Upvote   bool          `json:"upvote"`
	Downvote bool          `json:"downvote"`
}

// ReportedItem is one row of the moderator queue: the flagged content
// joined with lightweight author identity for display.
type ReportedItem struct {
	Kind      ContentKind `json:"kind"`
	ID        int         `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	VoteCount int         `json:"voteCount" db:"vote_count"`
	Author    PublicUser  `json:"author"`
}
