package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

type PostgresDB struct {
	Conn *sqlx.DB
}

func NewPostgresDB(ctx context.Context, dsn string, log *zap.Logger) (*PostgresDB, error) {
	conn, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("✅ Connected to PostgreSQL")
	return &PostgresDB{Conn: conn}, nil
}

// Migrate applies the embedded schema of one service ("orders", "products"
// or "customers").
func (db *PostgresDB) Migrate(schema string, log *zap.Logger) error {
	src, err := iofs.New(migrations, "migrations/"+schema)
	if err != nil {
		return fmt.Errorf("failed to open migrations for %s: %w", schema, err)
	}

	driver, err := migratepg.WithInstance(db.Conn.DB, &migratepg.Config{
		MigrationsTable: schema + "_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("✅ Migrations applied", zap.String("schema", schema), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.Conn.PingContext(ctx)
}

func (db *PostgresDB) Close() error {
	return db.Conn.Close()
}

// TxClosure runs fn inside a read-committed transaction, committing when fn
// succeeds and rolling back otherwise.
func TxClosure[T any](ctx context.Context, conn *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) (T, error)) (res T, err error) {
	tx, err := conn.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
			}
			return
		}

		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(ctx, tx)
}
