package base

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository базовый репозиторий с общими методами.
// Запросы пишутся с плейсхолдерами ?, Rebind подставляет нужные для драйвера.
type Repository struct {
	db *sqlx.DB
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB возвращает подключение
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Get выполняет запрос и сканирует одну строку; found=false если строки нет
func (r *Repository) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := r.db.GetContext(ctx, dest, r.db.Rebind(query), args...)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Select выполняет запрос и сканирует все строки
func (r *Repository) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.db.SelectContext(ctx, dest, r.db.Rebind(query), args...)
}

// QueryRow выполняет запрос и возвращает одну строку
func (r *Repository) QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...)
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InTx выполняет fn в транзакции; при ошибке откатывает
func (r *Repository) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation нарушение уникального ключа (postgres и sqlite)
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// без расширенных кодов остаётся только текст
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}

	return false
}
