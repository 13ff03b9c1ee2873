// Package store is the reference persistence adapter for encrypted patient
// records. It follows the two-column convention (X_encrypted + X_iv, Y_hash)
// and routes every read through fieldcrypt's safe decode path.
package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ai8future/fieldcrypt/internal/config"
	"github.com/ai8future/fieldcrypt/internal/logger"
	"github.com/ai8future/fieldcrypt/migrations"
)

// DB wraps *sql.DB with the driver-specific query builder.
type DB struct {
	*sql.DB
	driver  string
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// Open connects to the configured database, pings it and applies migrations.
func Open(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "store.Open").Str("driver", cfg.Driver).Msg("error opening database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "store.Open").Str("driver", cfg.Driver).Msg("error connecting database (ping)")
		conn.Close()
		return nil, fmt.Errorf("error connecting to DB: %w", err)
	}

	if err := migrations.Migrate(conn, cfg.Driver); err != nil {
		log.Err(err).Str("func", "store.Open").Msg("error applying migrations")
		conn.Close()
		return nil, err
	}

	log.Debug().Str("func", "store.Open").Str("driver", cfg.Driver).Msg("connected to database successfully")
	return NewDB(conn, cfg.Driver, log), nil
}

// NewDB wraps an existing connection. driver picks the placeholder format:
// $n for pgx, ? otherwise.
func NewDB(conn *sql.DB, driver string, log *logger.Logger) *DB {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == config.DriverPgx {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DB{
		DB:      conn,
		driver:  driver,
		builder: builder,
		logger:  log,
	}
}
