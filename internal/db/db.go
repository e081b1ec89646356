package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

const (
	TokenLen         = 64 // bytes of entropy per session token
	LimitMaxTitleLen = 300
	LimitMaxBodyLen  = 30000
	trendingLimit    = 10
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so query helpers can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type SharedDB struct {
	db         *pgxpool.Pool
	logger     zerolog.Logger
	bcryptCost int
}

func Connect(config *models.EnvConfig, logger zerolog.Logger) (SharedDB, error) {
	pool, err := pgxpool.Connect(context.Background(), config.DatabaseURL)
	if err != nil {
		return SharedDB{}, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	bcryptCost := bcrypt.DefaultCost + 2
	if config.Debug {
		bcryptCost = bcrypt.MinCost
	}
	return SharedDB{
		db:         pool,
		logger:     logger,
		bcryptCost: bcryptCost,
	}, nil
}

func (sdb *SharedDB) Close() {
	sdb.db.Close()
}

func (sdb *SharedDB) Ping(ctx context.Context) error {
	return sdb.db.Ping(ctx)
}

func MigrateUp(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}
	defer m.Close()
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while migrating up: %w", err)
	}
	return nil
}

func MigrateDown(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}
	defer m.Close()
	err = m.Down()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while migrating down: %w", err)
	}
	return nil
}

func Drop(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}
	defer m.Close()
	err = m.Drop()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("while dropping: %w", err)
	}
	return nil
}

func execTx(ctx context.Context, db *pgxpool.Pool, txFunc func(context.Context, pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	err = txFunc(ctx, tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// contentTable maps a content kind to its backing table. Every operation
// shared across the three kinds dispatches through this single lookup.
func contentTable(kind models.ContentKind) (string, error) {
	switch kind {
	case models.KindQuestion:
		return "questions", nil
	case models.KindAnswer:
		return "answers", nil
	case models.KindComment:
		return "comments", nil
	default:
		return "", models.ErrInvalidInput
	}
}
