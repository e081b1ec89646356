package db

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

const pgForeignKeyViolation = "23503"

// CreateQuestion inserts a question with its tags. Tags are find-or-created
// by lower-cased name inside the same transaction; submitting more than
// five raw tags fails before anything is written.
func (sdb *SharedDB) CreateQuestion(ctx context.Context, identity models.Identity, title, body string, tagNames []string) (*models.Question, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, models.ErrEmptyContent
	}
	if len(title) > LimitMaxTitleLen || len(body) > LimitMaxBodyLen {
		return nil, models.ErrInvalidInput
	}
	if len(tagNames) > models.LimitMaxTags {
		return nil, models.ErrTooManyTags
	}

	question := &models.Question{
		Title:    title,
		Body:     body,
		AuthorID: identity.UserID,
	}
	err := execTx(ctx, sdb.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, _ := psql.
			Insert("questions").
			Columns("title", "body", "author_id").
			Values(question.Title, question.Body, question.AuthorID).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err := tx.QueryRow(ctx, sql, args...).Scan(&question.ID, &question.CreatedAt); err != nil {
			return err
		}

		seen := map[string]bool{}
		for _, name := range tagNames {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			tagID, err := findOrCreateTag(ctx, tx, name)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx,
				"INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2)",
				question.ID, tagID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// findOrCreateTag reuses an existing tag or creates one. The no-op update
// on conflict makes the statement always return the id.
func findOrCreateTag(ctx context.Context, tx pgx.Tx, name string) (int, error) {
	var id int
	err := tx.QueryRow(ctx,
		"INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
		name).Scan(&id)
	return id, err
}

// CreateAnswer attaches an answer to a question. Listings return answers
// newest-first, which keeps the freshly created answer at the head.
func (sdb *SharedDB) CreateAnswer(ctx context.Context, identity models.Identity, questionID int, body string) (*models.Answer, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.ErrEmptyContent
	}

	answer := &models.Answer{
		QuestionID: questionID,
		Body:       body,
		AuthorID:   identity.UserID,
	}
	sql, args, _ := psql.
		Insert("answers").
		Columns("question_id", "body", "author_id").
		Values(answer.QuestionID, answer.Body, answer.AuthorID).
		Suffix("RETURNING id, created_at").
		ToSql()
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&answer.ID, &answer.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// CreateComment attaches a comment to a question or an answer.
func (sdb *SharedDB) CreateComment(ctx context.Context, identity models.Identity, parentKind models.ContentKind, parentID int, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.ErrEmptyContent
	}
	if parentKind != models.KindQuestion && parentKind != models.KindAnswer {
		return nil, models.ErrInvalidInput
	}

	parentCol := "question_id"
	if parentKind == models.KindAnswer {
		parentCol = "answer_id"
	}
	comment := &models.Comment{
		ParentKind: parentKind,
		ParentID:   parentID,
		Body:       body,
		AuthorID:   identity.UserID,
	}
	sql, args, _ := psql.
		Insert("comments").
		Columns(parentCol, "body", "author_id").
		Values(parentID, comment.Body, comment.AuthorID).
		Suffix("RETURNING id, created_at").
		ToSql()
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListQuestions returns all unflagged questions joined with their tags,
// answer metadata and public author, ready for the ranking and search
// passes.
func (sdb *SharedDB) ListQuestions(ctx context.Context) ([]models.QuestionView, error) {
	sql, args, _ := psql.
		Select("id", "title", "body", "author_id", "created_at", "views", "vote_count", "flag").
		From("questions").
		Where(sq.Eq{"flag": false}).
		OrderBy("id").
		ToSql()

	questions := []models.Question{}
	if err := pgxscan.Select(ctx, sdb.db, &questions, sql, args...); err != nil {
		return nil, err
	}
	return sdb.assembleQuestionViews(ctx, questions)
}

// TrendingQuestions returns the most viewed unflagged questions.
func (sdb *SharedDB) TrendingQuestions(ctx context.Context) ([]models.QuestionView, error) {
	sql, args, _ := psql.
		Select("id", "title", "body", "author_id", "created_at", "views", "vote_count", "flag").
		From("questions").
		Where(sq.Eq{"flag": false}).
		OrderBy("views DESC", "id").
		Limit(trendingLimit).
		ToSql()

	questions := []models.Question{}
	if err := pgxscan.Select(ctx, sdb.db, &questions, sql, args...); err != nil {
		return nil, err
	}
	return sdb.assembleQuestionViews(ctx, questions)
}

// assembleQuestionViews resolves tags, answer metadata and authors through
// flat id-keyed lookups instead of per-question subqueries.
func (sdb *SharedDB) assembleQuestionViews(ctx context.Context, questions []models.Question) ([]models.QuestionView, error) {
	views := make([]models.QuestionView, len(questions))
	if len(questions) == 0 {
		return views, nil
	}

	questionIDs := make([]int, len(questions))
	authorIDs := make([]int, 0, len(questions))
	for i, q := range questions {
		views[i].Question = q
		questionIDs[i] = q.ID
		authorIDs = append(authorIDs, q.AuthorID)
	}

	tagsByQuestion, err := sdb.tagsForQuestions(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	sql, args, _ := psql.
		Select("id", "question_id", "created_at").
		From("answers").
		Where(sq.Eq{"question_id": questionIDs, "flag": false}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	answerRows := []struct {
		ID         int
		QuestionID int       `db:"question_id"`
		CreatedAt  time.Time `db:"created_at"`
	}{}
	if err := pgxscan.Select(ctx, sdb.db, &answerRows, sql, args...); err != nil {
		return nil, err
	}
	answersByQuestion := map[int][]models.AnswerMeta{}
	for _, row := range answerRows {
		answersByQuestion[row.QuestionID] = append(answersByQuestion[row.QuestionID],
			models.AnswerMeta{ID: row.ID, CreatedAt: row.CreatedAt})
	}

	authors, err := sdb.publicUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range views {
		views[i].Tags = tagsByQuestion[views[i].ID]
		views[i].Answers = answersByQuestion[views[i].ID]
		views[i].Author = authors[views[i].AuthorID]
	}
	return views, nil
}

func (sdb *SharedDB) tagsForQuestions(ctx context.Context, questionIDs []int) (map[int][]models.Tag, error) {
	sql, args, _ := psql.
		Select("question_tags.question_id", "tags.id", "tags.name").
		From("question_tags").
		Join("tags ON tags.id = question_tags.tag_id").
		Where(sq.Eq{"question_tags.question_id": questionIDs}).
		OrderBy("tags.name").
		ToSql()

	rows := []struct {
		QuestionID int `db:"question_id"`
		ID         int
		Name       string
	}{}
	if err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...); err != nil {
		return nil, err
	}
	out := map[int][]models.Tag{}
	for _, row := range rows {
		out[row.QuestionID] = append(out[row.QuestionID], models.Tag{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// publicUsers returns the credential-free author projection keyed by id.
func (sdb *SharedDB) publicUsers(ctx context.Context, userIDs []int) (map[int]models.PublicUser, error) {
	if len(userIDs) == 0 {
		return map[int]models.PublicUser{}, nil
	}
	sql, args, _ := psql.
		Select("id", "username", "firstname", "lastname", "profile_pic").
		From("users").
		Where(sq.Eq{"id": userIDs}).
		ToSql()

	users := []models.PublicUser{}
	if err := pgxscan.Select(ctx, sdb.db, &users, sql, args...); err != nil {
		return nil, err
	}
	out := make(map[int]models.PublicUser, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetQuestionDetail fetches the full question fan-out and bumps the view
// counter atomically. When caller is non-nil every nested item carries the
// caller's upvote/downvote booleans.
func (sdb *SharedDB) GetQuestionDetail(ctx context.Context, id int, caller *models.Identity) (*models.QuestionDetail, error) {
	detail := &models.QuestionDetail{}
	err := pgxscan.Get(ctx, sdb.db, &detail.Question,
		`UPDATE questions SET views = views + 1 WHERE id = $1
		 RETURNING id, title, body, author_id, created_at, views, vote_count, flag`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tagsByQuestion, err := sdb.tagsForQuestions(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	detail.Tags = tagsByQuestion[id]

	sql, args, _ := psql.
		Select("id", "question_id", "body", "author_id", "created_at", "vote_count", "flag").
		From("answers").
		Where(sq.Eq{"question_id": id, "flag": false}).
		OrderBy("vote_count DESC", "created_at DESC", "id DESC").
		ToSql()
	answers := []models.Answer{}
	if err := pgxscan.Select(ctx, sdb.db, &answers, sql, args...); err != nil {
		return nil, err
	}

	answerIDs := make([]int, len(answers))
	for i, a := range answers {
		answerIDs[i] = a.ID
	}
	comments, err := sdb.commentsForParents(ctx, id, answerIDs)
	if err != nil {
		return nil, err
	}

	authorIDs := []int{detail.AuthorID}
	for _, a := range answers {
		authorIDs = append(authorIDs, a.AuthorID)
	}
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := sdb.publicUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	detail.Author = authors[detail.AuthorID]

	commentIDs := make([]int, len(comments))
	for i, c := range comments {
		commentIDs[i] = c.ID
	}
	votes, err := sdb.callerVotes(ctx, caller, id, answerIDs, commentIDs)
	if err != nil {
		return nil, err
	}
	detail.Upvote, detail.Downvote = votes.flags(models.KindQuestion, id)

	commentViews := map[int][]models.CommentView{} // keyed by parent id per kind
	questionComments := []models.CommentView{}
	for _, c := range comments {
		cv := models.CommentView{Comment: c, Author: authors[c.AuthorID]}
		cv.Upvote, cv.Downvote = votes.flags(models.KindComment, c.ID)
		if c.ParentKind == models.KindQuestion {
			questionComments = append(questionComments, cv)
		} else {
			commentViews[c.ParentID] = append(commentViews[c.ParentID], cv)
		}
	}
	sortCommentViews(questionComments)
	detail.Comments = questionComments

	detail.Answers = make([]models.AnswerView, len(answers))
	for i, a := range answers {
		av := models.AnswerView{Answer: a, Author: authors[a.AuthorID]}
		av.Upvote, av.Downvote = votes.flags(models.KindAnswer, a.ID)
		av.Comments = commentViews[a.ID]
		sortCommentViews(av.Comments)
		detail.Answers[i] = av
	}
	return detail, nil
}

func sortCommentViews(comments []models.CommentView) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].VoteCount > comments[j].VoteCount
	})
}

// commentsForParents loads the unflagged comments of a question and of the
// given answers in one scan.
func (sdb *SharedDB) commentsForParents(ctx context.Context, questionID int, answerIDs []int) ([]models.Comment, error) {
	where := sq.Or{sq.Eq{"question_id": questionID}}
	if len(answerIDs) > 0 {
		where = append(where, sq.Eq{"answer_id": answerIDs})
	}
	sql, args, _ := psql.
		Select("id", "question_id", "answer_id", "body", "author_id", "created_at", "vote_count", "flag").
		From("comments").
		Where(sq.And{where, sq.Eq{"flag": false}}).
		OrderBy("created_at", "id").
		ToSql()

	rows := []commentRow{}
	if err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

// commentRow is the scan target for comment queries; the nullable parent
// columns collapse into the kind+id pair of the model.
type commentRow struct {
	ID         int
	QuestionID *int `db:"question_id"`
	AnswerID   *int `db:"answer_id"`
	Body       string
	AuthorID   int       `db:"author_id"`
	CreatedAt  time.Time `db:"created_at"`
	VoteCount  int       `db:"vote_count"`
	Flag       bool
}

func (row commentRow) toComment() models.Comment {
	c := models.Comment{
		ID:        row.ID,
		Body:      row.Body,
		AuthorID:  row.AuthorID,
		CreatedAt: row.CreatedAt,
		VoteCount: row.VoteCount,
		Flag:      row.Flag,
	}
	if row.AnswerID != nil {
		c.ParentKind = models.KindAnswer
		c.ParentID = *row.AnswerID
	} else if row.QuestionID != nil {
		c.ParentKind = models.KindQuestion
		c.ParentID = *row.QuestionID
	}
	return c
}

// callerVoteSet indexes the caller's votes over the fan-out's content ids.
type callerVoteSet map[models.ContentKind]map[int]int

func (s callerVoteSet) flags(kind models.ContentKind, id int) (upvote, downvote bool) {
	if s == nil {
		return false, false
	}
	switch s[kind][id] {
	case 1:
		return true, false
	case -1:
		return false, true
	}
	return false, false
}

func (sdb *SharedDB) callerVotes(ctx context.Context, caller *models.Identity, questionID int, answerIDs, commentIDs []int) (callerVoteSet, error) {
	if caller == nil {
		return nil, nil
	}
	where := sq.Or{
		sq.Eq{"content_kind": models.KindQuestion, "content_id": questionID},
	}
	if len(answerIDs) > 0 {
		where = append(where, sq.Eq{"content_kind": models.KindAnswer, "content_id": answerIDs})
	}
	if len(commentIDs) > 0 {
		where = append(where, sq.Eq{"content_kind": models.KindComment, "content_id": commentIDs})
	}
	sql, args, _ := psql.
		Select("content_kind", "content_id", "value").
		From("votes").
		Where(sq.And{sq.Eq{"user_id": caller.UserID}, where}).
		ToSql()

	rows := []struct {
		ContentKind models.ContentKind `db:"content_kind"`
		ContentID   int                `db:"content_id"`
		Value       int
	}{}
	if err := pgxscan.Select(ctx, sdb.db, &rows, sql, args...); err != nil {
		return nil, err
	}

	set := callerVoteSet{}
	for _, row := range rows {
		if set[row.ContentKind] == nil {
			set[row.ContentKind] = map[int]int{}
		}
		set[row.ContentKind][row.ContentID] = row.Value
	}
	return set, nil
}

// ListTagCounts returns every tag with the number of questions carrying it.
func (sdb *SharedDB) ListTagCounts(ctx context.Context) ([]models.TagCount, error) {
	sql, args, _ := psql.
		Select("tags.name", "COUNT(question_tags.question_id) AS qcnt").
		From("tags").
		LeftJoin("question_tags ON question_tags.tag_id = tags.id").
		GroupBy("tags.name").
		OrderBy("tags.name").
		ToSql()

	counts := []models.TagCount{}
	if err := pgxscan.Select(ctx, sdb.db, &counts, sql, args...); err != nil {
		return nil, err
	}
	return counts, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
