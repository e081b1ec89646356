package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

// voteUpsertSQL casts or switches a vote in one conditional statement.
// No row comes back when the user already holds the same vote; xmax = 0
// distinguishes a fresh insert from a switch of the opposite vote. This is
// deliberately not a read-modify-write: two concurrent voters can never
// lose each other's update.
const voteUpsertSQL = `
INSERT INTO votes (content_kind, content_id, user_id, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (content_kind, content_id, user_id)
DO UPDATE SET value = EXCLUDED.value
WHERE votes.value <> EXCLUDED.value
RETURNING (xmax = 0) AS inserted`

// ApplyVote applies an up or down vote by userID on the identified content
// item. Voting the same direction twice is a no-op reported as
// Applied=false. Switching direction counts double. The vote row and the
// counter move in one transaction; the author's reputation adjustment is
// fire-and-forget.
func (sdb *SharedDB) ApplyVote(ctx context.Context, kind models.ContentKind, contentID int, userID int, vote models.VoteType) (models.VoteResult, error) {
	table, err := contentTable(kind)
	if err != nil {
		return models.VoteResult{}, err
	}

	var res models.VoteResult
	var authorID int
	err = execTx(ctx, sdb.db, func(ctx context.Context, tx pgx.Tx) error {
		var inserted bool
		err := tx.QueryRow(ctx, voteUpsertSQL, kind, contentID, userID, int(vote)).Scan(&inserted)
		if errors.Is(err, pgx.ErrNoRows) {
			// Same vote already present. Still surface NotFound for
			// vote rows orphaned by a deleted item.
			return tx.QueryRow(ctx, "SELECT vote_count, author_id FROM "+table+" WHERE id = $1", contentID).
				Scan(&res.VoteCount, &authorID)
		}
		if err != nil {
			return err
		}

		res.Applied = true
		res.Delta = int(vote)
		if !inserted {
			// Switching removes the opposite vote and adds this one.
			res.Delta = 2 * int(vote)
		}

		row := tx.QueryRow(ctx,
			"UPDATE "+table+" SET vote_count = vote_count + $2 WHERE id = $1 RETURNING vote_count, author_id",
			contentID, res.Delta)
		return row.Scan(&res.VoteCount, &authorID)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.VoteResult{}, models.ErrNotFound
	}
	if err != nil {
		return models.VoteResult{}, err
	}
	if !res.Applied {
		return res, nil
	}

	// Reputation is best-effort: a failure here must not fail the vote.
	if err := sdb.adjustReputation(ctx, authorID, vote == models.VoteTypeUpvote); err != nil {
		sdb.logger.Warn().
			Err(err).
			Int("author_id", authorID).
			Str("content_kind", string(kind)).
			Int("content_id", contentID).
			Msg("vote applied but reputation adjustment failed")
	}
	return res, nil
}

// adjustReputation credits 10 points per upvote and debits 10 per
// downvote, never dropping below zero.
func (sdb *SharedDB) adjustReputation(ctx context.Context, authorID int, isUpvote bool) error {
	var sql string
	if isUpvote {
		sql = "UPDATE users SET reputation = reputation + 10 WHERE id = $1"
	} else {
		sql = "UPDATE users SET reputation = GREATEST(reputation - 10, 0) WHERE id = $1"
	}
	_, err := sdb.db.Exec(ctx, sql, authorID)
	return err
}
