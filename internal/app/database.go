package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database подключение к БД вместе с пулом pgx (для postgres)
type Database struct {
	DB     *sqlx.DB
	Driver string
	pool   *pgxpool.Pool
}

// OpenDatabase открывает postgres (через pgxpool) или sqlite (modernc) и проверяет соединение
func OpenDatabase(ctx context.Context, driver, dsn string) (*Database, error) {
	switch driver {
	case DriverPostgres:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		// database/sql поверх того же пула: его используют sqlx и goose
		db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
		return &Database{DB: db, Driver: driver, pool: pool}, nil

	case DriverSQLite:
		db, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		if isMemoryDSN(dsn) {
			// каждое соединение к :memory: получает свою пустую базу
			db.SetMaxOpenConns(1)
		} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}

		for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("apply %q: %w", pragma, err)
			}
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return &Database{DB: db, Driver: driver}, nil

	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Ping проверяет доступность БД
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close закрывает sql.DB и пул
func (d *Database) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
