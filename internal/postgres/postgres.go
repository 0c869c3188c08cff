package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/brewcycle/brewcycle/internal/config"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// IClient is what repositories and services need from the database:
// running a unit of work in a transaction and getting the querier bound to ctx
type IClient interface {
	// WithTx wraps the given function in a transaction. Nested calls reuse the
	// outer transaction through a savepoint.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Querier returns the transaction from ctx if there is one, or the pool
	Querier(ctx context.Context) Querier
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

// NewDB opens the connection pool, retrying the first ping with exponential backoff
// so the service can start alongside its database
func NewDB(cfg *config.Configuration, log *logger.Logger) (*DB, error) {
	dsn := cfg.Postgres.GetDSN()

	var db *sqlx.DB
	connect := func() error {
		var err error
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			log.Warnw("postgres not reachable yet", "host", cfg.Postgres.Host, "error", err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not connect to the database").
			Mark(ierr.ErrDatabase)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	return &DB{DB: db, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// Querier returns either the transaction from context or the base DB
func (db *DB) Querier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

var _ IClient = (*DB)(nil)
