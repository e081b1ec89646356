package db

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshaychavan7/ByteExchange/internal/models"
	"github.com/akshaychavan7/ByteExchange/internal/utils"
)

const userColumns = "id, username, firstname, lastname, role, reputation, profile_pic, location, technologies, joined_at"

// CreateUser registers a user. The first registered account becomes a
// moderator so a fresh deployment always has one.
func (sdb *SharedDB) CreateUser(ctx context.Context, user *models.User, passwd string) error {
	if !utils.ValidateUsername(user.Username) {
		return models.ErrInvalidInput
	}
	if passwd == "" {
		return models.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), sdb.bcryptCost)
	if err != nil {
		return err
	}

	return execTx(ctx, sdb.db, func(ctx context.Context, tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
			return err
		}
		user.Role = models.RoleGeneral
		if count == 0 {
			user.Role = models.RoleModerator
		}

		sql, args, _ := psql.
			Insert("users").
			Columns("username", "firstname", "lastname", "passwd_hash", "role", "profile_pic", "location", "technologies").
			Values(user.Username, user.Firstname, user.Lastname, hash, user.Role, user.ProfilePic, user.Location, user.Technologies).
			Suffix("RETURNING id, joined_at").
			ToSql()
		err := tx.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.JoinedAt)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
			return models.ErrUsernameTaken
		}
		return err
	})
}

// Login verifies credentials and opens a session, returning the opaque
// token the transport stores in a cookie.
func (sdb *SharedDB) Login(ctx context.Context, username, passwd string) (string, error) {
	sql, args, _ := psql.
		Select("id", "passwd_hash").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()

	var data struct {
		ID         int
		PasswdHash string `db:"passwd_hash"`
	}
	err := pgxscan.Get(ctx, sdb.db, &data, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrBadCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(data.PasswdHash), []byte(passwd)) != nil {
		return "", models.ErrBadCredentials
	}

	token := utils.GenToken(TokenLen)
	sql, args, _ = psql.
		Insert("sessions").
		Columns("token", "user_id").
		Values(token, data.ID).
		ToSql()
	if _, err := sdb.db.Exec(ctx, sql, args...); err != nil {
		return "", err
	}
	return token, nil
}

func (sdb *SharedDB) Signout(ctx context.Context, token string) error {
	_, err := sdb.db.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// IdentityFromToken resolves a session token into the caller's identity.
func (sdb *SharedDB) IdentityFromToken(ctx context.Context, token string) (models.Identity, error) {
	sql, args, _ := psql.
		Select("users.id", "users.role").
		From("sessions").
		Join("users ON users.id = sessions.user_id").
		Where(sq.Eq{"sessions.token": token}).
		ToSql()

	var identity models.Identity
	err := sdb.db.QueryRow(ctx, sql, args...).Scan(&identity.UserID, &identity.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Identity{}, models.ErrUnauthorized
	}
	if err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// ListUsers returns every user's public profile. Password material never
// leaves this package.
func (sdb *SharedDB) ListUsers(ctx context.Context) ([]models.User, error) {
	sql, args, _ := psql.
		Select(userColumns).
		From("users").
		OrderBy("username").
		ToSql()

	users := []models.User{}
	if err := pgxscan.Select(ctx, sdb.db, &users, sql, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserDetails returns a profile with everything the user authored.
func (sdb *SharedDB) GetUserDetails(ctx context.Context, username string) (*models.UserDetails, error) {
	details := &models.UserDetails{}
	sql, args, _ := psql.
		Select(userColumns).
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	err := pgxscan.Get(ctx, sdb.db, &details.User, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sql, args, _ = psql.
		Select("id", "title", "body", "author_id", "created_at", "views", "vote_count", "flag").
		From("questions").
		Where(sq.Eq{"author_id": details.ID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	questions := []models.Question{}
	if err := pgxscan.Select(ctx, sdb.db, &questions, sql, args...); err != nil {
		return nil, err
	}
	details.Questions, err = sdb.assembleQuestionViews(ctx, questions)
	if err != nil {
		return nil, err
	}

	sql, args, _ = psql.
		Select("id", "question_id", "body", "author_id", "created_at", "vote_count", "flag").
		From("answers").
		Where(sq.Eq{"author_id": details.ID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	details.Answers = []models.Answer{}
	if err := pgxscan.Select(ctx, sdb.db, &details.Answers, sql, args...); err != nil {
		return nil, err
	}

	comments, err := sdb.commentsByAuthor(ctx, details.ID)
	if err != nil {
		return nil, err
	}
	details.Comments = comments
	return details, nil
}

func (sdb *SharedDB) commentsByAuthor(ctx context.Context, authorID int) ([]models.Comment, error) {
	sql, args, _ := psql.
		Select("id", "question_id", "answer_id", "body", "author_id", "created_at", "vote_count", "flag").
		From("comments").
		Where(sq.Eq{"author_id": authorID}).
		OrderBy("created_at DESC", "id DESC").
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
