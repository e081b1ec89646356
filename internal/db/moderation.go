package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

// Report flags a content item for moderator review. Re-reporting an
// already flagged item is a harmless no-op.
func (sdb *SharedDB) Report(ctx context.Context, kind models.ContentKind, id int) error {
	return sdb.setFlag(ctx, kind, id, true)
}

// Resolve dismisses a report, returning the item to the normal state.
func (sdb *SharedDB) Resolve(ctx context.Context, kind models.ContentKind, id int) error {
	return sdb.setFlag(ctx, kind, id, false)
}

func (sdb *SharedDB) setFlag(ctx context.Context, kind models.ContentKind, id int, flag bool) error {
	table, err := contentTable(kind)
	if err != nil {
		return err
	}
	sql, args, _ := psql.
		Update(table).
		Set("flag", flag).
		Where(sq.Eq{"id": id}).
		ToSql()
	tag, err := sdb.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteContent permanently removes a content item. Children go with it:
// foreign keys cascade the rows, and the same transaction clears the vote
// ledger entries of the whole subtree.
func (sdb *SharedDB) DeleteContent(ctx context.Context, kind models.ContentKind, id int) error {
	table, err := contentTable(kind)
	if err != nil {
		return err
	}
	return execTx(ctx, sdb.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := deleteSubtreeVotes(ctx, tx, kind, id); err != nil {
			return err
		}
		sql, args, _ := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func deleteSubtreeVotes(ctx context.Context, tx pgx.Tx, kind models.ContentKind, id int) error {
	var answerIDs, commentIDs []int
	var err error

	switch kind {
	case models.KindQuestion:
		if err = pgxscan.Select(ctx, tx, &answerIDs,
			"SELECT id FROM answers WHERE question_id = $1", id); err != nil {
			return err
		}
		err = pgxscan.Select(ctx, tx, &commentIDs,
			"SELECT id FROM comments WHERE question_id = $1 OR answer_id = ANY($2)", id, answerIDs)
	case models.KindAnswer:
		err = pgxscan.Select(ctx, tx, &commentIDs,
			"SELECT id FROM comments WHERE answer_id = $1", id)
	}
	if err != nil {
		return err
	}

	where := sq.Or{sq.Eq{"content_kind": kind, "content_id": id}}
	if len(answerIDs) > 0 {
		where = append(where, sq.Eq{"content_kind": models.KindAnswer, "content_id": answerIDs})
	}
	if len(commentIDs) > 0 {
		where = append(where, sq.Eq{"content_kind": models.KindComment, "content_id": commentIDs})
	}
	sql, args, _ := psql.Delete("votes").Where(where).ToSql()
	_, err = tx.Exec(ctx, sql, args...)
	return err
}

// ListReported returns the moderator queue for one content kind: every
// flagged item joined with lightweight author identity.
func (sdb *SharedDB) ListReported(ctx context.Context, kind models.ContentKind) ([]models.ReportedItem, error) {
	table, err := contentTable(kind)
	if err != nil {
		return nil, err
	}

	titleCol := "'' AS title"
	if kind == models.KindQuestion {
		titleCol = "c.title"
	}
	sql, args, _ := psql.
		Select(
			"c.id",
			titleCol,
			"c.body",
			"c.created_at",
			"c.vote_count",
			`users.id AS "author.id"`,
			`users.username AS "author.username"`,
			`users.firstname AS "author.firstname"`,
			`users.lastname AS "author.lastname"`,
			`users.profile_pic AS "author.profile_pic"`,
		).
		From(table + " AS c").
		Join("users ON users.id = c.author_id").
		Where(sq.Eq{"c.flag": true}).
		OrderBy("c.id").
		ToSql()

	items := []models.ReportedItem{}
	if err := pgxscan.Select(ctx, sdb.db, &items, sql, args...); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}
